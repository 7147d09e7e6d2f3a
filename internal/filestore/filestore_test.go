package filestore_test

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/report-management/internal"
	"github.com/frahmantamala/report-management/internal/filestore"
)

func TestFileStore(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "FileStore Suite")
}

func appCode(err error) internal.ErrorCode {
	var appErr *internal.AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

var pdfPayload = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\n%%EOF")

var _ = Describe("Store", func() {
	var store *filestore.Store

	BeforeEach(func() {
		var err error
		store, err = filestore.New(GinkgoT().TempDir(), 1024)
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("Save", func() {
		It("should store a PDF and return an opaque handle", func() {
			handle, size, err := store.Save(bytes.NewReader(pdfPayload), "application/pdf")

			Expect(err).NotTo(HaveOccurred())
			Expect(handle).To(HaveSuffix(".pdf"))
			Expect(handle).NotTo(ContainSubstring("/"))
			Expect(size).To(Equal(int64(len(pdfPayload))))

			f, err := store.Open(handle)
			Expect(err).NotTo(HaveOccurred())
			defer f.Close()
			stored, err := io.ReadAll(f)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored).To(Equal(pdfPayload))
		})

		It("should reject a declared non-PDF content type", func() {
			_, _, err := store.Save(bytes.NewReader(pdfPayload), "text/plain")

			Expect(appCode(err)).To(Equal(internal.ErrCodeFileNotPDF))
		})

		It("should reject content without the PDF magic", func() {
			_, _, err := store.Save(strings.NewReader("just some text"), "application/pdf")

			Expect(appCode(err)).To(Equal(internal.ErrCodeFileNotPDF))
		})

		It("should reject content over the ceiling", func() {
			big := append([]byte("%PDF-"), bytes.Repeat([]byte("a"), 2048)...)

			_, _, err := store.Save(bytes.NewReader(big), "application/pdf")

			Expect(appCode(err)).To(Equal(internal.ErrCodeFileTooLarge))
		})

		It("should reject an empty upload", func() {
			_, _, err := store.Save(bytes.NewReader(nil), "application/pdf")

			Expect(appCode(err)).To(Equal(internal.ErrCodeFileMissing))
		})

		It("should issue distinct handles for identical content", func() {
			first, _, err := store.Save(bytes.NewReader(pdfPayload), "application/pdf")
			Expect(err).NotTo(HaveOccurred())
			second, _, err := store.Save(bytes.NewReader(pdfPayload), "application/pdf")
			Expect(err).NotTo(HaveOccurred())

			Expect(first).NotTo(Equal(second))
		})
	})

	Describe("Open", func() {
		It("should return NotFound for an unknown handle", func() {
			_, err := store.Open("missing.pdf")

			Expect(appCode(err)).To(Equal(internal.ErrCodeReportNotFound))
		})

		It("should not escape the upload dir through a crafted handle", func() {
			_, err := store.Open("../../etc/passwd")

			Expect(appCode(err)).To(Equal(internal.ErrCodeReportNotFound))
		})
	})

	Describe("Remove", func() {
		It("should delete stored content and tolerate missing handles", func() {
			handle, _, err := store.Save(bytes.NewReader(pdfPayload), "application/pdf")
			Expect(err).NotTo(HaveOccurred())

			Expect(store.Remove(handle)).To(Succeed())
			_, err = store.Open(handle)
			Expect(err).To(HaveOccurred())

			Expect(store.Remove(handle)).To(Succeed())
		})
	})
})
