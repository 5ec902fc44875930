package mdbdump_test

import (
	"math/rand"

	"github.com/bsm/mdbdump"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/ginkgo/extensions/table"
	. "github.com/onsi/gomega"
)

var _ = Describe("Codec", func() {
	encode := func(f mdbdump.Format, s string) string {
		line, err := mdbdump.Encode(f, []byte(s))
		Expect(err).NotTo(HaveOccurred())
		return string(line)
	}

	decode := func(f mdbdump.Format, line string) (string, error) {
		p, err := mdbdump.Decode(f, []byte(line))
		return string(p), err
	}

	It("should encode bytevalue", func() {
		Expect(encode(mdbdump.FormatByteValue, "A\tz")).To(Equal(" 41097a\n"))
		Expect(encode(mdbdump.FormatByteValue, "")).To(Equal(" \n"))
		Expect(encode(mdbdump.FormatByteValue, "\x00\xff\\")).To(Equal(" 00ff5c\n"))
	})

	It("should encode print", func() {
		Expect(encode(mdbdump.FormatPrint, "A\tz")).To(Equal(" A\\09z\n"))
		Expect(encode(mdbdump.FormatPrint, "")).To(Equal(" \n"))
		Expect(encode(mdbdump.FormatPrint, " ~\x7f\x1f")).To(Equal(" " + ` ~\7f\1f` + "\n"))
		Expect(encode(mdbdump.FormatPrint, "ü")).To(Equal(" " + `\c3\bc` + "\n"))
	})

	It("should double backslashes in print", func() {
		Expect(encode(mdbdump.FormatPrint, `\\`)).To(Equal(" " + `\\\\` + "\n"))
		Expect(decode(mdbdump.FormatPrint, " "+`\\\\`+"\n")).To(Equal(`\\`))

		Expect(encode(mdbdump.FormatPrint, `\41`)).To(Equal(" " + `\\41` + "\n"))
		Expect(decode(mdbdump.FormatPrint, " "+`\\41`+"\n")).To(Equal(`\41`))

		Expect(encode(mdbdump.FormatPrint, "\\\x01")).To(Equal(" " + `\\\01` + "\n"))
		Expect(decode(mdbdump.FormatPrint, " "+`\\\01`+"\n")).To(Equal("\\\x01"))
	})

	It("should decode uppercase hex", func() {
		Expect(decode(mdbdump.FormatByteValue, " 41097A\n")).To(Equal("A\tz"))
		Expect(decode(mdbdump.FormatPrint, " \\C3\\BC\n")).To(Equal("ü"))
	})

	It("should decode lines without newline", func() {
		Expect(decode(mdbdump.FormatByteValue, " 4142")).To(Equal("AB"))
		Expect(decode(mdbdump.FormatPrint, " AB")).To(Equal("AB"))
	})

	It("should append", func() {
		dst, err := mdbdump.AppendEncoded([]byte("x"), mdbdump.FormatByteValue, []byte("A"))
		Expect(err).NotTo(HaveOccurred())
		Expect(string(dst)).To(Equal("x 41\n"))

		dst, err = mdbdump.AppendDecoded([]byte("x"), mdbdump.FormatPrint, []byte(" A\\09z\n"))
		Expect(err).NotTo(HaveOccurred())
		Expect(string(dst)).To(Equal("xA\tz"))
	})

	It("should reject unknown formats", func() {
		_, err := mdbdump.Encode(mdbdump.Format(9), []byte("x"))
		Expect(err).To(BeAssignableToTypeOf(&mdbdump.UsageError{}))

		dst, err := mdbdump.AppendEncoded([]byte("x"), mdbdump.Format(9), []byte("y"))
		Expect(err).To(MatchError("mdbdump: unknown format Format(9)"))
		Expect(string(dst)).To(Equal("x"))

		_, err = mdbdump.Decode(mdbdump.Format(9), []byte(" x\n"))
		Expect(err).To(BeAssignableToTypeOf(&mdbdump.FormatError{}))
	})

	DescribeTable("round trip",
		func(s string) {
			for _, f := range []mdbdump.Format{mdbdump.FormatByteValue, mdbdump.FormatPrint} {
				Expect(decode(f, encode(f, s))).To(Equal(s), "format %s", f)
			}
		},
		Entry("empty", ""),
		Entry("plain", "hello world"),
		Entry("NUL", "a\x00b\x00"),
		Entry("backslash", `\`),
		Entry("backslashes", `\\\`),
		Entry("escape lookalike", `\41\\5c\`),
		Entry("trailing spaces", "abc  "),
		Entry("high bytes", "\x7f\x80\xfe\xff"),
		Entry("control", "\r\n\t\x1b"),
		Entry("utf8", "Grüße, 世界"),
	)

	It("should round trip random data", func() {
		rnd := rand.New(rand.NewSource(1))
		buf := make([]byte, 64)
		for i := 0; i < 1000; i++ {
			p := buf[:rnd.Intn(len(buf))]
			_, err := rnd.Read(p)
			Expect(err).NotTo(HaveOccurred())

			for _, f := range []mdbdump.Format{mdbdump.FormatByteValue, mdbdump.FormatPrint} {
				line, err := mdbdump.Encode(f, p)
				Expect(err).NotTo(HaveOccurred())
				Expect(decode(f, string(line))).To(Equal(string(p)))
			}
		}
	})

	DescribeTable("malformed print",
		func(line string) {
			_, err := decode(mdbdump.FormatPrint, line)
			Expect(err).To(BeAssignableToTypeOf(&mdbdump.FormatError{}))
		},
		Entry("trailing backslash", " abc\\\n"),
		Entry("one hex digit", " abc\\4\n"),
		Entry("non hex", " \\zz\n"),
	)

	DescribeTable("malformed bytevalue",
		func(line string) {
			_, err := decode(mdbdump.FormatByteValue, line)
			Expect(err).To(BeAssignableToTypeOf(&mdbdump.FormatError{}))
		},
		Entry("odd length", " 414\n"),
		Entry("non hex", " zz\n"),
	)
})
