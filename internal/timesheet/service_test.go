package timesheet_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/gogotime/internal"
	"github.com/frahmantamala/gogotime/internal/actioncode"
	"github.com/frahmantamala/gogotime/internal/auth"
	"github.com/frahmantamala/gogotime/internal/core/events"
	"github.com/frahmantamala/gogotime/internal/timesheet"
)

var _ = Describe("Service", func() {
	var (
		ctx      context.Context
		repo     *memRepo
		bus      *events.EventBus
		service  *timesheet.Service
		company  uuid.UUID
		owner    *auth.Principal
		stranger *auth.Principal
		approver *auth.Principal
		billing  *auth.Principal
		codeID   uuid.UUID
		blocked  uuid.UUID
		sheet    *timesheet.Timesheet
	)

	BeforeEach(func() {
		ctx = context.Background()
		company = uuid.New()
		owner = &auth.Principal{ID: uuid.New(), CompanyID: company}
		stranger = &auth.Principal{ID: uuid.New(), CompanyID: company}
		approver = &auth.Principal{ID: uuid.New(), CompanyID: company}
		billing = &auth.Principal{ID: uuid.New(), CompanyID: company}

		codeID = uuid.New()
		blocked = uuid.New()
		codes := fakeCodes{
			codeID:  {ID: codeID, CompanyID: company, Code: "DEV", AllowTimeLogging: true},
			blocked: {ID: blocked, CompanyID: company, Code: "HOLIDAY", AllowTimeLogging: false},
		}
		users := fakeUsers{owner.ID: company, stranger.ID: company, approver.ID: company, billing.ID: company}
		policy := grantPolicy{grants: map[uuid.UUID][]string{
			approver.ID: {
				auth.PermApproveTimesheetEntry,
				auth.PermRejectTimesheetEntry,
				auth.PermViewOtherTimesheetEntry,
				auth.PermCreateOtherTimesheet,
				auth.PermViewOtherTimesheet,
			},
			billing.ID: {auth.PermInvoiceTimesheetEntry},
		}}

		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		repo = newMemRepo()
		bus = events.NewEventBus(slogger)
		service = timesheet.NewService(repo, codes, users, policy, bus, slogger)

		var err error
		sheet, err = service.CreateTimesheet(ctx, owner, timesheet.CreateTimesheetDTO{PeriodStart: "2025-03-03", PeriodEnd: "2025-03-09"})
		Expect(err).NotTo(HaveOccurred())
	})

	newEntry := func(day string, minutes int) *timesheet.Entry {
		e, err := service.CreateEntry(ctx, owner, timesheet.CreateEntryDTO{
			TimesheetID:  sheet.ID,
			ActionCodeID: codeID,
			WorkDate:     day,
			Minutes:      minutes,
		})
		Expect(err).NotTo(HaveOccurred())
		return e
	}

	Describe("timesheets", func() {
		It("refuses a period that ends before it starts", func() {
			_, err := service.CreateTimesheet(ctx, owner, timesheet.CreateTimesheetDTO{PeriodStart: "2025-03-10", PeriodEnd: "2025-03-09"})
			Expect(internal.ErrorTypeOf(err)).To(Equal(internal.ErrorTypeValidation))
		})

		It("refuses a second timesheet starting on the same day", func() {
			_, err := service.CreateTimesheet(ctx, owner, timesheet.CreateTimesheetDTO{PeriodStart: "2025-03-03", PeriodEnd: "2025-03-05"})
			Expect(errors.Is(err, timesheet.ErrDuplicateTimesheet)).To(BeTrue())
		})

		It("needs create_other_timesheet to open one for someone else", func() {
			_, err := service.CreateTimesheet(ctx, stranger, timesheet.CreateTimesheetDTO{UserID: &owner.ID, PeriodStart: "2025-04-01", PeriodEnd: "2025-04-30"})
			Expect(errors.Is(err, internal.ErrForbidden)).To(BeTrue())

			t, err := service.CreateTimesheet(ctx, approver, timesheet.CreateTimesheetDTO{UserID: &owner.ID, PeriodStart: "2025-04-01", PeriodEnd: "2025-04-30"})
			Expect(err).NotTo(HaveOccurred())
			Expect(t.UserID).To(Equal(owner.ID))
		})

		It("adds up entry minutes", func() {
			newEntry("2025-03-03", 90)
			newEntry("2025-03-04", 30)

			got, err := service.GetTimesheet(ctx, owner, sheet.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Entries).To(HaveLen(2))
			Expect(got.TotalMinutes).To(Equal(120))
		})

		It("hides other users' timesheets without view_other_timesheet", func() {
			_, err := service.GetTimesheet(ctx, stranger, sheet.ID)
			Expect(errors.Is(err, internal.ErrForbidden)).To(BeTrue())

			list, err := service.ListTimesheets(ctx, approver, &owner.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(list).To(HaveLen(1))
		})
	})

	Describe("logging time", func() {
		It("creates drafts at version one", func() {
			e := newEntry("2025-03-05", 60)
			Expect(e.Status).To(Equal(timesheet.StatusDraft))
			Expect(e.Version).To(Equal(int64(1)))
			Expect(e.UserID).To(Equal(owner.ID))
		})

		It("refuses action codes that do not accept time", func() {
			_, err := service.CreateEntry(ctx, owner, timesheet.CreateEntryDTO{
				TimesheetID: sheet.ID, ActionCodeID: blocked, WorkDate: "2025-03-05", Minutes: 60,
			})
			Expect(errors.Is(err, timesheet.ErrTimeLoggingBlocked)).To(BeTrue())
			appErr, _ := internal.IsAppError(err)
			Expect(appErr.StatusCode).To(Equal(422))
		})

		It("refuses unknown action codes", func() {
			_, err := service.CreateEntry(ctx, owner, timesheet.CreateEntryDTO{
				TimesheetID: sheet.ID, ActionCodeID: uuid.New(), WorkDate: "2025-03-05", Minutes: 60,
			})
			Expect(errors.Is(err, actioncode.ErrActionCodeNotFound)).To(BeTrue())
		})

		It("refuses days outside the period", func() {
			_, err := service.CreateEntry(ctx, owner, timesheet.CreateEntryDTO{
				TimesheetID: sheet.ID, ActionCodeID: codeID, WorkDate: "2025-03-10", Minutes: 60,
			})
			Expect(internal.ErrorTypeOf(err)).To(Equal(internal.ErrorTypeValidation))
		})

		It("refuses zero minutes and full-day overflows", func() {
			_, err := service.CreateEntry(ctx, owner, timesheet.CreateEntryDTO{
				TimesheetID: sheet.ID, ActionCodeID: codeID, WorkDate: "2025-03-05", Minutes: 0,
			})
			Expect(internal.ErrorTypeOf(err)).To(Equal(internal.ErrorTypeValidation))

			_, err = service.CreateEntry(ctx, owner, timesheet.CreateEntryDTO{
				TimesheetID: sheet.ID, ActionCodeID: codeID, WorkDate: "2025-03-05", Minutes: 1441,
			})
			Expect(internal.ErrorTypeOf(err)).To(Equal(internal.ErrorTypeValidation))
		})

		It("needs create_other_timesheet_entry to log on someone else's sheet", func() {
			_, err := service.CreateEntry(ctx, stranger, timesheet.CreateEntryDTO{
				TimesheetID: sheet.ID, ActionCodeID: codeID, WorkDate: "2025-03-05", Minutes: 60,
			})
			Expect(errors.Is(err, internal.ErrForbidden)).To(BeTrue())
		})

		It("does not see timesheets of another company", func() {
			outsider := &auth.Principal{ID: uuid.New(), CompanyID: uuid.New()}
			_, err := service.CreateEntry(ctx, outsider, timesheet.CreateEntryDTO{
				TimesheetID: sheet.ID, ActionCodeID: codeID, WorkDate: "2025-03-05", Minutes: 60,
			})
			Expect(errors.Is(err, timesheet.ErrTimesheetNotFound)).To(BeTrue())
		})
	})

	Describe("editing", func() {
		It("updates drafts and bumps the version", func() {
			e := newEntry("2025-03-05", 60)
			minutes := 45
			updated, err := service.UpdateEntry(ctx, owner, e.ID, timesheet.UpdateEntryDTO{Minutes: &minutes, Version: e.Version})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Minutes).To(Equal(45))
			Expect(updated.Version).To(Equal(e.Version + 1))

			_, err = service.UpdateEntry(ctx, owner, e.ID, timesheet.UpdateEntryDTO{Minutes: &minutes, Version: e.Version})
			Expect(errors.Is(err, internal.ErrVersionConflict)).To(BeTrue())
		})

		It("refuses to switch to a blocked action code", func() {
			e := newEntry("2025-03-05", 60)
			_, err := service.UpdateEntry(ctx, owner, e.ID, timesheet.UpdateEntryDTO{ActionCodeID: &blocked, Version: e.Version})
			Expect(errors.Is(err, timesheet.ErrTimeLoggingBlocked)).To(BeTrue())
		})

		It("freezes entries once submitted", func() {
			e := newEntry("2025-03-05", 60)
			_, err := service.Submit(ctx, owner, e.ID, timesheet.TransitionDTO{})
			Expect(err).NotTo(HaveOccurred())

			minutes := 10
			_, err = service.UpdateEntry(ctx, owner, e.ID, timesheet.UpdateEntryDTO{Minutes: &minutes, Version: e.Version + 1})
			Expect(errors.Is(err, timesheet.ErrNotEditable)).To(BeTrue())
			Expect(errors.Is(service.DeleteEntry(ctx, owner, e.ID), timesheet.ErrNotEditable)).To(BeTrue())
		})

		It("deletes drafts for the owner only", func() {
			e := newEntry("2025-03-05", 60)
			Expect(errors.Is(service.DeleteEntry(ctx, stranger, e.ID), internal.ErrForbidden)).To(BeTrue())
			Expect(service.DeleteEntry(ctx, owner, e.ID)).To(Succeed())

			_, err := service.GetEntry(ctx, owner, e.ID)
			Expect(errors.Is(err, timesheet.ErrEntryNotFound)).To(BeTrue())
		})
	})

	Describe("workflow", func() {
		var entry *timesheet.Entry

		BeforeEach(func() {
			entry = newEntry("2025-03-05", 60)
		})

		It("runs draft to invoiced and records who did what", func() {
			submitted, err := service.Submit(ctx, owner, entry.ID, timesheet.TransitionDTO{Version: entry.Version})
			Expect(err).NotTo(HaveOccurred())
			Expect(submitted.Status).To(Equal(timesheet.StatusSubmitted))
			Expect(submitted.SubmittedAt).NotTo(BeNil())

			approved, err := service.Approve(ctx, approver, entry.ID, timesheet.TransitionDTO{})
			Expect(err).NotTo(HaveOccurred())
			Expect(approved.Status).To(Equal(timesheet.StatusApproved))
			Expect(*approved.ApprovedBy).To(Equal(approver.ID))

			invoiced, err := service.Invoice(ctx, billing, entry.ID, timesheet.TransitionDTO{})
			Expect(err).NotTo(HaveOccurred())
			Expect(invoiced.Status).To(Equal(timesheet.StatusInvoiced))
			Expect(invoiced.InvoicedAt).NotTo(BeNil())
			Expect(invoiced.Version).To(Equal(entry.Version + 3))
		})

		It("publishes each transition", func() {
			var (
				mu  sync.Mutex
				got []string
			)
			record := func(_ context.Context, e events.Event) error {
				mu.Lock()
				defer mu.Unlock()
				got = append(got, e.EventType())
				return nil
			}
			bus.Subscribe(events.EventTypeTimesheetEntrySubmitted, record)
			bus.Subscribe(events.EventTypeTimesheetEntryRejected, record)

			_, err := service.Submit(ctx, owner, entry.ID, timesheet.TransitionDTO{})
			Expect(err).NotTo(HaveOccurred())
			_, err = service.Reject(ctx, approver, entry.ID, timesheet.RejectDTO{Reason: "wrong code"})
			Expect(err).NotTo(HaveOccurred())
			bus.Wait()

			mu.Lock()
			defer mu.Unlock()
			Expect(got).To(ConsistOf(events.EventTypeTimesheetEntrySubmitted, events.EventTypeTimesheetEntryRejected))
		})

		It("cannot invoice a draft", func() {
			_, err := service.Invoice(ctx, billing, entry.ID, timesheet.TransitionDTO{})
			Expect(internal.ErrorTypeOf(err)).To(Equal(internal.ErrorTypeInvalidState))
		})

		It("cannot invoice a rejected entry", func() {
			_, err := service.Submit(ctx, owner, entry.ID, timesheet.TransitionDTO{})
			Expect(err).NotTo(HaveOccurred())
			rejected, err := service.Reject(ctx, approver, entry.ID, timesheet.RejectDTO{Reason: "duplicate"})
			Expect(err).NotTo(HaveOccurred())
			Expect(*rejected.RejectionReason).To(Equal("duplicate"))

			_, err = service.Invoice(ctx, billing, entry.ID, timesheet.TransitionDTO{})
			Expect(internal.ErrorTypeOf(err)).To(Equal(internal.ErrorTypeInvalidState))
		})

		It("requires a reason to reject", func() {
			_, err := service.Submit(ctx, owner, entry.ID, timesheet.TransitionDTO{})
			Expect(err).NotTo(HaveOccurred())
			_, err = service.Reject(ctx, approver, entry.ID, timesheet.RejectDTO{Reason: " "})
			Expect(internal.ErrorTypeOf(err)).To(Equal(internal.ErrorTypeValidation))
		})

		It("keeps approval for holders of approve_timesheet_entry", func() {
			_, err := service.Submit(ctx, owner, entry.ID, timesheet.TransitionDTO{})
			Expect(err).NotTo(HaveOccurred())
			_, err = service.Approve(ctx, owner, entry.ID, timesheet.TransitionDTO{})
			Expect(errors.Is(err, internal.ErrForbidden)).To(BeTrue())
		})

		It("needs submit_other_timesheet_entry to submit for someone else", func() {
			_, err := service.Submit(ctx, stranger, entry.ID, timesheet.TransitionDTO{})
			Expect(errors.Is(err, internal.ErrForbidden)).To(BeTrue())
		})

		It("refuses a transition pinned to a stale version", func() {
			_, err := service.Submit(ctx, owner, entry.ID, timesheet.TransitionDTO{Version: entry.Version + 5})
			Expect(errors.Is(err, internal.ErrVersionConflict)).To(BeTrue())
		})

		It("lets exactly one of several concurrent approvals win", func() {
			_, err := service.Submit(ctx, owner, entry.ID, timesheet.TransitionDTO{})
			Expect(err).NotTo(HaveOccurred())

			const n = 8
			var (
				wg   sync.WaitGroup
				mu   sync.Mutex
				wins int
				errs []error
			)
			for i := 0; i < n; i++ {
				wg.Add(1)
				go func() {
					defer GinkgoRecover()
					defer wg.Done()
					_, err := service.Approve(ctx, approver, entry.ID, timesheet.TransitionDTO{})
					mu.Lock()
					defer mu.Unlock()
					if err == nil {
						wins++
						return
					}
					errs = append(errs, err)
				}()
			}
			wg.Wait()

			Expect(wins).To(Equal(1))
			for _, err := range errs {
				appErr, ok := internal.IsAppError(err)
				Expect(ok).To(BeTrue())
				Expect(appErr.StatusCode).To(Equal(409))
			}
		})

		It("queues submitted entries for approvers", func() {
			_, err := service.Submit(ctx, owner, entry.ID, timesheet.TransitionDTO{})
			Expect(err).NotTo(HaveOccurred())
			newEntry("2025-03-06", 30)

			_, err = service.ApprovalQueue(ctx, owner)
			Expect(errors.Is(err, internal.ErrForbidden)).To(BeTrue())

			queue, err := service.ApprovalQueue(ctx, approver)
			Expect(err).NotTo(HaveOccurred())
			Expect(queue).To(HaveLen(1))
			Expect(queue[0].ID).To(Equal(entry.ID))
		})
	})

	Describe("listing", func() {
		It("defaults to the caller's entries", func() {
			newEntry("2025-03-05", 60)

			mine, err := service.ListEntries(ctx, owner, timesheet.EntryFilter{})
			Expect(err).NotTo(HaveOccurred())
			Expect(mine).To(HaveLen(1))

			theirs, err := service.ListEntries(ctx, stranger, timesheet.EntryFilter{})
			Expect(err).NotTo(HaveOccurred())
			Expect(theirs).To(BeEmpty())
		})

		It("needs view_other_timesheet_entry for another user or the company", func() {
			newEntry("2025-03-05", 60)

			_, err := service.ListEntries(ctx, stranger, timesheet.EntryFilter{UserID: &owner.ID})
			Expect(errors.Is(err, internal.ErrForbidden)).To(BeTrue())
			_, err = service.ListEntries(ctx, stranger, timesheet.EntryFilter{AllUsers: true})
			Expect(errors.Is(err, internal.ErrForbidden)).To(BeTrue())

			all, err := service.ListEntries(ctx, approver, timesheet.EntryFilter{AllUsers: true, Status: timesheet.StatusDraft})
			Expect(err).NotTo(HaveOccurred())
			Expect(all).To(HaveLen(1))
		})

		It("rejects unknown statuses", func() {
			_, err := service.ListEntries(ctx, owner, timesheet.EntryFilter{Status: "cancelled"})
			Expect(internal.ErrorTypeOf(err)).To(Equal(internal.ErrorTypeValidation))
		})
	})
})
