package scanning

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func encodeTestPNG(img image.Image) []byte {
	var buf bytes.Buffer
	Expect(png.Encode(&buf, img)).To(Succeed())
	return buf.Bytes()
}

var _ = Describe("prepareImageData", func() {
	var (
		data        []byte
		contentType string
		pre         Preprocess
		result      []byte
		err         error
	)

	BeforeEach(func() {
		pre = Preprocess{}
	})

	JustBeforeEach(func() {
		result, err = prepareImageData(data, contentType, pre)
	})

	When("the upload is already PNG", func() {
		BeforeEach(func() {
			data = encodeTestPNG(solidImage(4, 4, color.White))
			contentType = " IMAGE/PNG "
		})

		It("passes it through", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(data))
		})

		When("preprocessing is enabled", func() {
			BeforeEach(func() {
				pre = Preprocess{MaxWidth: 2}
			})

			It("re-encodes it", func() {
				Expect(err).NotTo(HaveOccurred())
				img, err := png.Decode(bytes.NewReader(result))
				Expect(err).NotTo(HaveOccurred())
				Expect(img.Bounds().Dx()).To(Equal(2))
			})
		})
	})

	When("the upload is JPEG", func() {
		BeforeEach(func() {
			var buf bytes.Buffer
			Expect(jpeg.Encode(&buf, solidImage(6, 3, color.Black), nil)).To(Succeed())
			data = buf.Bytes()
			contentType = "image/jpeg"
		})

		It("converts it to PNG", func() {
			Expect(err).NotTo(HaveOccurred())
			img, format, err := image.Decode(bytes.NewReader(result))
			Expect(err).NotTo(HaveOccurred())
			Expect(format).To(Equal("png"))
			Expect(img.Bounds().Dx()).To(Equal(6))
		})
	})

	When("the content type is missing", func() {
		BeforeEach(func() {
			var buf bytes.Buffer
			Expect(jpeg.Encode(&buf, solidImage(2, 2, color.White), nil)).To(Succeed())
			data = buf.Bytes()
			contentType = ""
		})

		It("assumes JPEG", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(result).NotTo(BeEmpty())
		})
	})

	When("the data is not an image", func() {
		BeforeEach(func() {
			data = []byte("definitely not an image")
			contentType = "image/jpeg"
		})

		It("returns an error naming the supported formats", func() {
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("Supported formats"))
		})
	})
})

var _ = Describe("isHEICFormat", func() {
	It("recognizes an ftyp box with a HEIC brand", func() {
		Expect(isHEICFormat([]byte("\x00\x00\x00\x18ftypheic\x00\x00"))).To(BeTrue())
		Expect(isHEICFormat([]byte("\x00\x00\x00\x18ftypmif1\x00\x00"))).To(BeTrue())
	})

	It("rejects other data", func() {
		Expect(isHEICFormat([]byte("\x00\x00\x00\x18ftypmp42\x00\x00"))).To(BeFalse())
		Expect(isHEICFormat([]byte("short"))).To(BeFalse())
	})
})
