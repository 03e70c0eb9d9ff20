package ledger_test

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"

	"github.com/zombor/fuel-ledger/internal/extraction"
	"github.com/zombor/fuel-ledger/internal/ledger"
)

const integrationReceipt = `ENEOS セルフ〇〇SS
2025年09月12日 08:15
TEL 03-1234-5678
レギュラー
給油量 33.96L
単価 163.0円/L
合計 ¥5,535
(内消費税 ¥503)`

// stubRecognizer returns a canned transcription
type stubRecognizer struct {
	text string
}

func (s *stubRecognizer) Recognize(imageData []byte, contentType string) (string, error) {
	return s.text, nil
}

func (s *stubRecognizer) Close() error {
	return nil
}

var _ = Describe("Integration", func() {
	var (
		db       *ledger.BoltDB
		store    *ledger.LocalStorage
		server   *ledger.Server
		ghServer *ghttp.Server
	)

	BeforeEach(func() {
		tempDir := GinkgoT().TempDir()

		var err error
		db, err = ledger.NewBoltDB(filepath.Join(tempDir, "test.db"))
		Expect(err).NotTo(HaveOccurred())

		store, err = ledger.NewLocalStorage(filepath.Join(tempDir, "photos"))
		Expect(err).NotTo(HaveOccurred())

		service := ledger.NewService(db, &stubRecognizer{text: integrationReceipt},
			extraction.NewExtractor(extraction.DefaultConfig()), store)
		server = ledger.NewServer(service, ledger.BasicAuth{})
		ghServer = ghttp.NewServer()
	})

	AfterEach(func() {
		ghServer.Close()
		db.Close()
	})

	It("scans a receipt, books it and shows it on the calendar", func() {
		ghServer.AppendHandlers(
			server.ServeHTTP, // scan
			server.ServeHTTP, // create
			server.ServeHTTP, // calendar
			server.ServeHTTP, // photo
			server.ServeHTTP, // delete
		)

		// --- Step 1: scan ---
		body := &bytes.Buffer{}
		writer := multipart.NewWriter(body)
		part, err := writer.CreateFormFile("file", "IMG_0042.jpg")
		Expect(err).NotTo(HaveOccurred())
		_, err = part.Write([]byte("fake jpeg"))
		Expect(err).NotTo(HaveOccurred())
		Expect(writer.Close()).To(Succeed())

		resp, err := http.Post(ghServer.URL()+"/api/scan", writer.FormDataContentType(), body)
		Expect(err).NotTo(HaveOccurred())
		defer resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		Expect(resp.Header.Get("Content-Type")).To(ContainSubstring("application/json"))

		var draft ledger.Draft
		Expect(json.NewDecoder(resp.Body).Decode(&draft)).To(Succeed())
		Expect(draft.Fields.Total).NotTo(BeNil())
		Expect(*draft.Fields.Total).To(Equal(int64(5535)))
		Expect(draft.Fields.Date).To(Equal("2025/09/12"))

		_, err = store.Get(draft.Photo)
		Expect(err).NotTo(HaveOccurred())

		records, err := db.ListRecords()
		Expect(err).NotTo(HaveOccurred())
		Expect(records).To(BeEmpty())

		// --- Step 2: confirm ---
		saveBody, err := json.Marshal(draft.RecordInput("ガソリン"))
		Expect(err).NotTo(HaveOccurred())
		saveResp, err := http.Post(ghServer.URL()+"/api/records", "application/json", bytes.NewReader(saveBody))
		Expect(err).NotTo(HaveOccurred())
		defer saveResp.Body.Close()
		Expect(saveResp.StatusCode).To(Equal(http.StatusCreated))

		var record ledger.Record
		Expect(json.NewDecoder(saveResp.Body).Decode(&record)).To(Succeed())
		Expect(record.Date).To(Equal("2025-09-12"))
		Expect(record.Amount).To(Equal(int64(5535)))
		Expect(record.Category).To(Equal("ガソリン"))

		saved, err := db.GetRecord(record.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(saved.Photo).To(Equal(draft.Photo))

		// --- Step 3: calendar ---
		calResp, err := http.Get(ghServer.URL() + "/api/calendar/2025/9")
		Expect(err).NotTo(HaveOccurred())
		defer calResp.Body.Close()

		var view ledger.MonthView
		Expect(json.NewDecoder(calResp.Body).Decode(&view)).To(Succeed())
		Expect(view.Total).To(Equal(int64(5535)))
		Expect(view.Weeks[1][5].Count).To(Equal(1))

		// --- Step 4: photo ---
		photoResp, err := http.Get(ghServer.URL() + "/api/records/" + record.ID + "/photo")
		Expect(err).NotTo(HaveOccurred())
		defer photoResp.Body.Close()
		photo, err := io.ReadAll(photoResp.Body)
		Expect(err).NotTo(HaveOccurred())
		Expect(photo).To(Equal([]byte("fake jpeg")))

		// --- Step 5: delete ---
		req, err := http.NewRequest("DELETE", ghServer.URL()+"/api/records/"+record.ID, nil)
		Expect(err).NotTo(HaveOccurred())
		delResp, err := http.DefaultClient.Do(req)
		Expect(err).NotTo(HaveOccurred())
		defer delResp.Body.Close()
		Expect(delResp.StatusCode).To(Equal(http.StatusNoContent))

		_, err = db.GetRecord(record.ID)
		Expect(err).To(MatchError(ledger.ErrNotFound))
		_, err = store.Get(draft.Photo)
		Expect(err).To(HaveOccurred())
	})
})
