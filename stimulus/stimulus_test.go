package stimulus

import (
	"bytes"
	"math/rand"
	"strconv"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/sramchar/macro"
)

var _ = Describe("Vector", func() {
	var v Vector

	BeforeEach(func() {
		v = Vector{
			{Op: Read, DataIn: 0, Addr: 0, WMask: 0},
			{Op: Write, DataIn: DataMax, Addr: AddrMax, WMask: WMaskMax},
			{Op: Write, DataIn: 5, Addr: AddrOne, WMask: 2},
		}
	})

	It("should write one line per tuple in minimal binary", func() {
		buf := new(bytes.Buffer)

		_, err := v.WriteTo(buf)

		Expect(err).NotTo(HaveOccurred())
		Expect(buf.String()).To(Equal(
			"0 0 0 0\n" +
				"1 " + strings.Repeat("1", 32) + " 111111 1111\n" +
				"1 101 1 10\n"))
	})

	It("should produce K lines of 4 tokens matching the tuples", func() {
		rng := rand.New(rand.NewSource(7))
		v := Random(40, DefaultBounds(), rng)
		buf := new(bytes.Buffer)

		_, err := v.WriteTo(buf)
		Expect(err).NotTo(HaveOccurred())

		lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
		Expect(lines).To(HaveLen(40))

		for i, line := range lines {
			tokens := strings.Fields(line)
			Expect(tokens).To(HaveLen(4))
			Expect(tokens[0]).To(Equal(strconv.FormatUint(uint64(v[i].Op), 2)))
			Expect(tokens[1]).To(Equal(strconv.FormatUint(v[i].DataIn, 2)))
			Expect(tokens[2]).To(Equal(strconv.FormatUint(v[i].Addr, 2)))
			Expect(tokens[3]).To(Equal(strconv.FormatUint(v[i].WMask, 2)))
		}
	})

	It("should read back what it wrote", func() {
		buf := new(bytes.Buffer)
		_, err := v.WriteTo(buf)
		Expect(err).NotTo(HaveOccurred())

		read, err := ReadVector(buf)

		Expect(err).NotTo(HaveOccurred())
		Expect(read).To(Equal(v))
	})

	It("should reject lines with the wrong number of fields", func() {
		_, err := ReadVector(strings.NewReader("0 0 0\n"))

		Expect(err).To(MatchError(ContainSubstring("expected 4 fields")))
	})

	It("should reject non-binary fields", func() {
		_, err := ReadVector(strings.NewReader("0 0 2 0\n"))

		Expect(err).To(HaveOccurred())
	})

	It("should accept vectors within bounds", func() {
		Expect(v.Validate(DefaultBounds())).To(Succeed())
	})

	It("should reject an address beyond the macro", func() {
		b := BoundsFor(macro.MustParse("sram22_16x32m4w8"))

		Expect(v.Validate(b)).To(MatchError(ContainSubstring("address")))
	})

	It("should reject an unknown op", func() {
		v[0].Op = 3

		Expect(v.Validate(DefaultBounds())).
			To(MatchError(ContainSubstring("unknown op")))
	})
})

var _ = Describe("Generate", func() {
	It("should repeat a zero read", func() {
		v, err := Generate("zero", 50, DefaultBounds(), nil)

		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(HaveLen(50))
		Expect(v).To(HaveEach(Tuple{Op: Read}))
	})

	It("should write all ones", func() {
		v, err := Generate("ones", 3, DefaultBounds(), nil)

		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(HaveEach(Tuple{
			Op: Write, DataIn: DataMax, WMask: WMaskMax,
		}))
	})

	It("should alternate data on address one", func() {
		v, err := Generate("alternating", 4, DefaultBounds(), nil)

		Expect(err).NotTo(HaveOccurred())
		Expect(v[0].DataIn).To(Equal(DataMax))
		Expect(v[1].DataIn).To(BeZero())
		Expect(v[2].DataIn).To(Equal(DataMax))
		Expect(v).To(HaveEach(HaveField("Addr", AddrOne)))
	})

	It("should be deterministic for a seed", func() {
		a, _ := Generate("random", 20, DefaultBounds(),
			rand.New(rand.NewSource(42)))
		b, _ := Generate("random", 20, DefaultBounds(),
			rand.New(rand.NewSource(42)))

		Expect(a).To(Equal(b))
		Expect(a.Validate(DefaultBounds())).To(Succeed())
	})

	It("should reject unknown patterns", func() {
		_, err := Generate("walking", 10, DefaultBounds(), nil)

		Expect(err).To(MatchError(ContainSubstring("unknown stimulus pattern")))
	})

	It("should reject empty vectors", func() {
		_, err := Generate("zero", 0, DefaultBounds(), nil)

		Expect(err).To(HaveOccurred())
	})
})
