package datetime_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/gogotime/internal/core/common/datetime"
)

var _ = Describe("Dates", func() {
	DescribeTable("ParseDate",
		func(in string, want time.Time, ok bool) {
			got, err := datetime.ParseDate(in)
			if !ok {
				Expect(err).To(HaveOccurred())
				return
			}
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal(want))
			Expect(got.Location()).To(Equal(time.UTC))
		},
		Entry("calendar date", "2026-03-01", time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), true),
		Entry("leap day", "2028-02-29", time.Date(2028, 2, 29, 0, 0, 0, 0, time.UTC), true),
		Entry("day out of range", "2026-02-30", time.Time{}, false),
		Entry("leap day in a common year", "2026-02-29", time.Time{}, false),
		Entry("other layout", "01/03/2026", time.Time{}, false),
		Entry("timestamp", "2026-03-01T10:00:00Z", time.Time{}, false),
		Entry("empty", "", time.Time{}, false),
	)

	DescribeTable("FormatDate",
		func(in time.Time, want string) {
			Expect(datetime.FormatDate(in)).To(Equal(want))
		},
		Entry("UTC midnight", time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), "2026-03-01"),
		Entry("late evening west of UTC rolls over", time.Date(2026, 3, 1, 23, 30, 0, 0, time.FixedZone("UTC-2", -2*3600)), "2026-03-02"),
		Entry("early morning east of UTC rolls back", time.Date(2026, 3, 1, 1, 0, 0, 0, time.FixedZone("UTC+9", 9*3600)), "2026-02-28"),
	)

	It("formats what it parses", func() {
		for _, in := range []string{"2026-01-01", "2026-12-31", "2028-02-29"} {
			got, err := datetime.ParseDate(in)
			Expect(err).NotTo(HaveOccurred())
			Expect(datetime.FormatDate(got)).To(Equal(in))
		}
	})
})
