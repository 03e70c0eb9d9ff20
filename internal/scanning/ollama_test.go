package scanning

import (
	"encoding/json"
	"image/color"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"
)

var _ = Describe("Ollama", func() {
	var (
		server   *ghttp.Server
		ollama   *Ollama
		imageRaw []byte
		text     string
		err      error
	)

	BeforeEach(func() {
		server = ghttp.NewServer()
		ollama, err = NewOllama(server.URL(), "test-model")
		Expect(err).NotTo(HaveOccurred())
		imageRaw = encodeTestPNG(solidImage(4, 4, color.White))
	})

	AfterEach(func() {
		server.Close()
	})

	JustBeforeEach(func() {
		text, err = ollama.Recognize(imageRaw, "image/png")
	})

	When("the model transcribes the receipt", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.CombineHandlers(
				ghttp.VerifyRequest("POST", "/api/chat"),
				ghttp.VerifyContentType("application/json"),
				func(w http.ResponseWriter, r *http.Request) {
					var req ollamaChatRequest
					Expect(json.NewDecoder(r.Body).Decode(&req)).To(Succeed())
					Expect(req.Model).To(Equal("test-model"))
					Expect(req.Stream).To(BeFalse())
					Expect(req.Messages).To(HaveLen(2))
					Expect(req.Messages[1].Images).To(HaveLen(1))
				},
				ghttp.RespondWithJSONEncoded(http.StatusOK, ollamaChatResponse{
					Message: ollamaMessage{Role: "assistant", Content: "```\n合計 ¥1,200\n```"},
					Done:    true,
				}),
			))
		})

		It("returns the cleaned text", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(text).To(Equal("合計 ¥1,200"))
		})
	})

	When("the server fails", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.RespondWith(http.StatusInternalServerError, "model not loaded"))
		})

		It("returns an error with the status", func() {
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("status 500"))
			Expect(err.Error()).To(ContainSubstring("model not loaded"))
		})
	})

	When("the reply is not JSON", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.RespondWith(http.StatusOK, "not json"))
		})

		It("returns a decoding error", func() {
			Expect(err).To(MatchError(ContainSubstring("decoding response")))
		})
	})
})

var _ = Describe("NewOllama", func() {
	It("defaults its settings", func() {
		o, err := NewOllama("", "")
		Expect(err).NotTo(HaveOccurred())
		Expect(o.baseURL).To(Equal("http://localhost:11434"))
		Expect(o.model).To(Equal("qwen2.5vl"))
		Expect(o.Close()).To(Succeed())
	})
})

var _ = Describe("NewGemini", func() {
	It("requires an api key", func() {
		_, err := NewGemini("", "")
		Expect(err).To(MatchError(ContainSubstring("api key is required")))
	})
})

var _ = Describe("NewTesseract", func() {
	It("defaults to Japanese", func() {
		t := NewTesseract(DefaultPreprocess())
		Expect(t.languages).To(Equal([]string{"jpn"}))
		Expect(t.Close()).To(Succeed())
	})

	It("keeps the given languages", func() {
		Expect(NewTesseract(Preprocess{}, "jpn", "eng").languages).To(Equal([]string{"jpn", "eng"}))
	})
})
