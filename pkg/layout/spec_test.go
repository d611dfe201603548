package layout_test

import (
	"github.com/kairos-io/go-cuckoo/pkg/constants"
	"github.com/kairos-io/go-cuckoo/pkg/layout"
	"github.com/kairos-io/go-cuckoo/pkg/types"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func intPtr(i int) *int    { return &i }
func boolPtr(b bool) *bool { return &b }

var _ = Describe("PartitionSpec", func() {
	Describe("NewPartitionSpec", func() {
		It("Resolves shorthands to GUIDs", func() {
			for _, shorthand := range constants.PartitionTypeShorthands() {
				spec, err := layout.NewPartitionSpec(types.PartitionConfig{
					Name: "p", Type: shorthand, Size: "2048",
					Priority: intPtr(0), Tries: intPtr(0),
				}, true)
				Expect(err).ToNot(HaveOccurred(), shorthand)
				guid, _ := constants.LookupPartitionType(shorthand)
				Expect(spec.Type).To(Equal(guid))
			}
		})

		It("Matches shorthands regardless of case", func() {
			spec, err := layout.NewPartitionSpec(types.PartitionConfig{Name: "ROOT-A", Type: "RootFS", Size: "-1"}, false)
			Expect(err).ToNot(HaveOccurred())
			Expect(spec.Type).To(Equal(constants.ChromeOSRootFS))
			Expect(spec.RemainingSpace()).To(BeTrue())
		})

		It("Passes unknown types through", func() {
			spec, err := layout.NewPartitionSpec(types.PartitionConfig{Name: "odd", Type: "linux", Size: "8"}, false)
			Expect(err).ToNot(HaveOccurred())
			Expect(spec.Type).To(Equal(constants.PartitionType("linux")))
		})

		It("Rejects unknown types in strict mode", func() {
			_, err := layout.NewPartitionSpec(types.PartitionConfig{Name: "odd", Type: "linux", Size: "8"}, true)
			Expect(err).To(MatchError(layout.ErrUnresolvedType))

			spec, err := layout.NewPartitionSpec(types.PartitionConfig{
				Name: "swap", Type: "0657FD6D-A4AB-43C4-84E5-0933C84B4F4F", Size: "8",
			}, true)
			Expect(err).ToNot(HaveOccurred())
			Expect(spec.Type).To(Equal(constants.PartitionType("0657FD6D-A4AB-43C4-84E5-0933C84B4F4F")))
		})

		It("Rejects a zero size", func() {
			_, err := layout.NewPartitionSpec(types.PartitionConfig{Name: "z", Type: "basicdata", Size: "0"}, false)
			Expect(err).To(MatchError(layout.ErrInvalidSize))
		})

		It("Reads kernel attributes", func() {
			spec, err := layout.NewPartitionSpec(types.PartitionConfig{
				Name: "KERN-A", Type: "kernel", Size: "32M",
				Priority: intPtr(15), Tries: intPtr(1), Successful: boolPtr(true),
			}, false)
			Expect(err).ToNot(HaveOccurred())
			Expect(spec.IsKernel()).To(BeTrue())
			Expect(spec.SizeSectors).To(Equal(int64(65536)))
			Expect(spec.Boot).To(Equal(&layout.BootAttributes{Priority: 15, Tries: 1, Successful: true}))
		})

		It("Recognises a lower case kernel GUID", func() {
			spec, err := layout.NewPartitionSpec(types.PartitionConfig{
				Name: "KERN-A", Type: "fe3a2a5d-4f32-41a7-b725-accc3285a309", Size: "8",
				Priority: intPtr(3), Tries: intPtr(2),
			}, true)
			Expect(err).ToNot(HaveOccurred())
			Expect(spec.IsKernel()).To(BeTrue())
			Expect(spec.Type).To(Equal(constants.PartitionType("fe3a2a5d-4f32-41a7-b725-accc3285a309")))
			Expect(spec.Boot).To(Equal(&layout.BootAttributes{Priority: 3, Tries: 2}))

			_, err = layout.NewPartitionSpec(types.PartitionConfig{
				Name: "KERN-B", Type: "fe3a2a5d-4f32-41a7-b725-accc3285a309", Size: "8",
			}, false)
			Expect(err).To(MatchError(layout.ErrInvalidAttribute))
		})

		It("Requires priority and tries on kernels", func() {
			_, err := layout.NewPartitionSpec(types.PartitionConfig{Name: "KERN-A", Type: "kernel", Size: "8", Tries: intPtr(0)}, false)
			Expect(err).To(MatchError(layout.ErrInvalidAttribute))
			_, err = layout.NewPartitionSpec(types.PartitionConfig{Name: "KERN-A", Type: "kernel", Size: "8", Priority: intPtr(0)}, false)
			Expect(err).To(MatchError(layout.ErrInvalidAttribute))
		})

		It("Rejects out of range kernel attributes", func() {
			_, err := layout.NewPartitionSpec(types.PartitionConfig{
				Name: "KERN-A", Type: "kernel", Size: "8", Priority: intPtr(20), Tries: intPtr(0),
			}, false)
			Expect(err).To(MatchError(layout.ErrInvalidAttribute))
		})

		It("Ignores kernel attributes on other partitions", func() {
			spec, err := layout.NewPartitionSpec(types.PartitionConfig{
				Name: "ROOT-A", Type: "rootfs", Size: "8", Priority: intPtr(99),
			}, false)
			Expect(err).ToNot(HaveOccurred())
			Expect(spec.Boot).To(BeNil())
		})
	})

	Describe("NewPartitionSpecs", func() {
		It("Keeps declaration order", func() {
			specs, err := layout.NewPartitionSpecs([]types.PartitionConfig{
				{Name: "KERN-B", Type: "kernel", Size: "16M", Priority: intPtr(0), Tries: intPtr(0)},
				{Name: "KERN-A", Type: "kernel", Size: "16M", Priority: intPtr(1), Tries: intPtr(0)},
				{Name: "ROOT-A", Type: "rootfs", Size: "remaining"},
			}, false)
			Expect(err).ToNot(HaveOccurred())
			Expect(specs).To(HaveLen(3))
			Expect(specs[0].Name).To(Equal("KERN-B"))
			Expect(specs[1].Name).To(Equal("KERN-A"))
			Expect(specs[2].Name).To(Equal("ROOT-A"))
		})

		It("Rejects two remaining-space partitions", func() {
			_, err := layout.NewPartitionSpecs([]types.PartitionConfig{
				{Name: "ROOT-A", Type: "rootfs", Size: "-1"},
				{Name: "ROOT-B", Type: "rootfs", Size: "-1"},
			}, false)
			Expect(err).To(MatchError(layout.ErrInvalidSize))
		})
	})

	DescribeTable("ParseSize",
		func(in string, want int64, ok bool) {
			got, err := layout.ParseSize(in)
			if !ok {
				Expect(err).To(HaveOccurred())
				return
			}
			Expect(err).ToNot(HaveOccurred())
			Expect(got).To(Equal(want))
		},
		Entry("sectors", "65536", int64(65536), true),
		Entry("kibibytes", "1K", int64(2), true),
		Entry("mebibytes", "64M", int64(131072), true),
		Entry("mebibytes long form", "64MiB", int64(131072), true),
		Entry("gibibytes", "1G", int64(2097152), true),
		Entry("lower case unit", "2m", int64(4096), true),
		Entry("minus one", "-1", int64(-1), true),
		Entry("any negative", "-42", int64(-42), true),
		Entry("remaining", "remaining", int64(-1), true),
		Entry("zero", "0", int64(0), false),
		Entry("zero with unit", "0M", int64(0), false),
		Entry("empty", "", int64(0), false),
		Entry("fraction", "1.5G", int64(0), false),
		Entry("garbage", "abc", int64(0), false),
		Entry("negative with unit", "-1G", int64(0), false),
	)
})
