package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"nest/backend/internal/dto"
	"nest/backend/internal/model"
	"nest/backend/internal/repository"
)

// RequestService handles the gear request lifecycle: creation, approval,
// rejection, cancellation and the overdue sweep.
type RequestService struct {
	repo      *repository.Repository
	notifier  *notifier
	publisher ChangePublisher
	logger    *zap.Logger
}

// NewRequestService creates the request service.
func NewRequestService(repo *repository.Repository, n *notifier, publisher ChangePublisher, logger *zap.Logger) *RequestService {
	return &RequestService{repo: repo, notifier: n, publisher: publisher, logger: logger}
}

// Create validates and files a new request. Duplicate lines for the same
// gear are merged before validation so the quantity check sees the real
// total. The insert itself runs under row locks; nothing is written when
// any line fails.
func (s *RequestService) Create(ctx context.Context, userID string, req *dto.CreateRequestRequest) (*model.GearRequest, error) {
	merged := make(map[string]int, len(req.Lines))
	order := make([]string, 0, len(req.Lines))
	for _, line := range req.Lines {
		if _, seen := merged[line.GearID]; !seen {
			order = append(order, line.GearID)
		}
		merged[line.GearID] += line.Quantity
	}

	lines := make([]model.GearRequestGear, 0, len(order))
	for _, gearID := range order {
		lines = append(lines, model.GearRequestGear{
			GearID:   gearID,
			Quantity: merged[gearID],
		})
	}

	request := &model.GearRequest{
		UserID:      userID,
		Reason:      req.Reason,
		Destination: req.Destination,
		Duration:    req.Duration,
		Status:      model.RequestStatusPending,
	}
	if err := s.repo.Request.CreateWithLines(ctx, request, lines); err != nil {
		return nil, err
	}

	s.publisher.Publish("gear_requests", "INSERT", request.RequestID)
	s.logActivity(ctx, userID, request.RequestID, nil, model.ActivityRequest,
		model.RequestStatusPending, req.Reason)

	// Admins review pending requests; tell all of them.
	if admins, err := s.repo.User.ListAdmins(ctx); err == nil {
		requester, _ := s.repo.User.GetByID(ctx, userID)
		name := userID
		if requester != nil {
			name = requester.FullName
		}
		s.notifier.sendToAll(ctx, admins, notice{
			ntype:       model.NotificationTypeRequestCreated,
			title:       "New gear request",
			message:     fmt.Sprintf("%s requested %d item(s): %s", name, len(lines), req.Reason),
			relatedType: "request",
			relatedID:   request.RequestID,
			email:       true,
		})
	}

	return request, nil
}

// Get returns one request with requester and lines preloaded.
func (s *RequestService) Get(ctx context.Context, id string) (*model.GearRequest, error) {
	return s.repo.Request.GetByID(ctx, id)
}

// List returns a filtered, paginated request page (admin view).
func (s *RequestService) List(ctx context.Context, req *dto.ListRequestsRequest) ([]model.GearRequest, int64, error) {
	return s.repo.Request.List(ctx, req)
}

// ListMine returns the caller's own requests.
func (s *RequestService) ListMine(ctx context.Context, userID string, page *dto.PaginationRequest) ([]model.GearRequest, int64, error) {
	return s.repo.Request.ListByUser(ctx, userID, page.GetOffset(), page.GetPageSize())
}

// Approve approves a pending request. Availability is re-validated and
// decremented inside the repository transaction.
func (s *RequestService) Approve(ctx context.Context, adminID, requestID string, req *dto.ApproveRequestRequest) (*model.GearRequest, error) {
	dueDate, err := parseDueDate(req.DueDate)
	if err != nil {
		return nil, err
	}

	request, err := s.repo.Request.Approve(ctx, requestID, adminID, dueDate, req.AdminNotes)
	if err != nil {
		return nil, err
	}

	s.publisher.Publish("gear_requests", "UPDATE", requestID)
	for _, line := range request.Lines {
		s.publisher.Publish("gears", "UPDATE", line.GearID)
		gearID := line.GearID
		s.logActivity(ctx, request.UserID, requestID, &gearID, model.ActivityCheckout,
			model.RequestStatusApproved, fmt.Sprintf("checked out %d", line.Quantity))
	}

	if user, err := s.repo.User.GetByID(ctx, request.UserID); err == nil {
		s.notifier.send(ctx, notice{
			user:        user,
			ntype:       model.NotificationTypeRequestApproved,
			title:       "Gear request approved",
			message:     fmt.Sprintf("Your request was approved. Due back %s.", dueDate.Format("Jan 2, 2006")),
			relatedType: "request",
			relatedID:   requestID,
			email:       true,
		})
	}

	s.logger.Info("request approved",
		zap.String("request_id", requestID),
		zap.String("admin_id", adminID))
	return request, nil
}

// Reject rejects a pending request with a required note.
func (s *RequestService) Reject(ctx context.Context, adminID, requestID string, req *dto.RejectRequestRequest) (*model.GearRequest, error) {
	request, err := s.repo.Request.Reject(ctx, requestID, adminID, req.AdminNotes)
	if err != nil {
		return nil, err
	}

	s.publisher.Publish("gear_requests", "UPDATE", requestID)

	if user, err := s.repo.User.GetByID(ctx, request.UserID); err == nil {
		s.notifier.send(ctx, notice{
			user:        user,
			ntype:       model.NotificationTypeRequestRejected,
			title:       "Gear request rejected",
			message:     "Your request was rejected: " + req.AdminNotes,
			relatedType: "request",
			relatedID:   requestID,
			email:       true,
		})
	}
	return request, nil
}

// Cancel withdraws the caller's own pending request.
func (s *RequestService) Cancel(ctx context.Context, userID, requestID string) (*model.GearRequest, error) {
	request, err := s.repo.Request.Cancel(ctx, requestID, userID)
	if err != nil {
		return nil, err
	}
	s.publisher.Publish("gear_requests", "UPDATE", requestID)
	return request, nil
}

// RunOverdueSweep flips approved requests past their due date to Overdue
// and notifies the holders. Returns how many requests were flipped.
func (s *RequestService) RunOverdueSweep(ctx context.Context) (int, error) {
	overdue, err := s.repo.Request.MarkOverdue(ctx, time.Now())
	if err != nil {
		return 0, err
	}

	for i := range overdue {
		req := &overdue[i]
		s.publisher.Publish("gear_requests", "UPDATE", req.RequestID)

		if user, err := s.repo.User.GetByID(ctx, req.UserID); err == nil {
			due := ""
			if req.DueDate != nil {
				due = req.DueDate.Format("Jan 2, 2006")
			}
			s.notifier.send(ctx, notice{
				user:        user,
				ntype:       model.NotificationTypeRequestOverdue,
				title:       "Gear overdue",
				message:     "Your checked-out gear was due back " + due + ". Please return it.",
				relatedType: "request",
				relatedID:   req.RequestID,
				email:       true,
			})
		}
	}

	if len(overdue) > 0 {
		s.logger.Info("overdue sweep", zap.Int("flipped", len(overdue)))
	}
	return len(overdue), nil
}

func (s *RequestService) logActivity(ctx context.Context, userID, requestID string, gearID *string, action, status, notes string) {
	entry := &model.ActivityLog{
		Action: action,
		Status: status,
		Notes:  notes,
	}
	if userID != "" {
		entry.UserID = &userID
	}
	if requestID != "" {
		entry.RequestID = &requestID
	}
	entry.GearID = gearID
	if err := s.repo.Activity.Append(ctx, entry); err != nil {
		s.logger.Error("append activity failed", zap.Error(err))
	}
}

// parseDueDate accepts RFC 3339 or a bare date and requires a future time.
func parseDueDate(raw string) (time.Time, error) {
	var t time.Time
	var err error
	if t, err = time.Parse(time.RFC3339, raw); err != nil {
		if t, err = time.Parse("2006-01-02", raw); err != nil {
			return time.Time{}, ErrInvalidDueDate
		}
		// Bare dates mean end of that day.
		t = t.Add(24*time.Hour - time.Second)
	}
	if !t.After(time.Now()) {
		return time.Time{}, ErrInvalidDueDate
	}
	return t, nil
}
