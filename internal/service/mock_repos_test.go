package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"nest/backend/config"
	"nest/backend/internal/dto"
	"nest/backend/internal/model"
	"nest/backend/internal/repository"
	"nest/backend/pkg/mail"
)

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User
	seq   int
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if user.UserID == "" {
		m.seq++
		user.UserID = fmt.Sprintf("user-%d", m.seq)
	}
	user.CreatedAt = time.Now()
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) List(_ context.Context, search, role, status string, offset, limit int) ([]model.User, int64, error) {
	var all []model.User
	for _, u := range m.users {
		if search != "" && !strings.Contains(u.FullName, search) && !strings.Contains(u.Email, search) {
			continue
		}
		if role != "" && u.Role != role {
			continue
		}
		if status != "" && u.Status != status {
			continue
		}
		all = append(all, *u)
	}
	total := int64(len(all))
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	if offset > len(all) {
		return nil, total, nil
	}
	return all[offset:end], total, nil
}

func (m *mockUserRepo) ListAdmins(_ context.Context) ([]model.User, error) {
	var admins []model.User
	for _, u := range m.users {
		if u.Role == model.RoleAdmin && u.Status == model.UserStatusActive {
			admins = append(admins, *u)
		}
	}
	return admins, nil
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	if _, ok := m.users[user.UserID]; !ok {
		return gorm.ErrRecordNotFound
	}
	m.users[user.UserID] = user
	return nil
}

// guard mirrors the repository's transactional last-admin check: the
// mutation fails when it would leave no active admin besides the target.
func (m *mockUserRepo) guard(targetID string) error {
	target, ok := m.users[targetID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if target.Role != model.RoleAdmin || target.Status != model.UserStatusActive {
		return nil
	}
	for id, u := range m.users {
		if id != targetID && u.Role == model.RoleAdmin && u.Status == model.UserStatusActive {
			return nil
		}
	}
	return repository.ErrLastAdmin
}

func (m *mockUserRepo) SetRole(_ context.Context, id, role string) error {
	if role != model.RoleAdmin {
		if err := m.guard(id); err != nil {
			return err
		}
	}
	u, ok := m.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.Role = role
	return nil
}

func (m *mockUserRepo) SetStatus(_ context.Context, id, status string) error {
	if status != model.UserStatusActive {
		if err := m.guard(id); err != nil {
			return err
		}
	}
	u, ok := m.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.Status = status
	return nil
}

func (m *mockUserRepo) Delete(_ context.Context, id string) error {
	if err := m.guard(id); err != nil {
		return err
	}
	delete(m.users, id)
	return nil
}

func (m *mockUserRepo) CountActiveAdmins(_ context.Context) (int64, error) {
	var n int64
	for _, u := range m.users {
		if u.Role == model.RoleAdmin && u.Status == model.UserStatusActive {
			n++
		}
	}
	return n, nil
}

func (m *mockUserRepo) CountByStatus(_ context.Context, status string) (int64, error) {
	var n int64
	for _, u := range m.users {
		if u.Status == status {
			n++
		}
	}
	return n, nil
}

func (m *mockUserRepo) Count(_ context.Context) (int64, error) {
	return int64(len(m.users)), nil
}

// ── Mock GearRepository ──

type mockGearRepo struct {
	gears map[string]*model.Gear
	seq   int
	fixes []dto.AvailabilityFix // returned by RecomputeAvailability
}

func newMockGearRepo() *mockGearRepo {
	return &mockGearRepo{gears: make(map[string]*model.Gear)}
}

func (m *mockGearRepo) Create(_ context.Context, gear *model.Gear) error {
	if gear.GearID == "" {
		m.seq++
		gear.GearID = fmt.Sprintf("gear-%d", m.seq)
	}
	m.gears[gear.GearID] = gear
	return nil
}

func (m *mockGearRepo) BatchCreate(ctx context.Context, gears []model.Gear) error {
	for i := range gears {
		g := gears[i]
		if err := m.Create(ctx, &g); err != nil {
			return err
		}
	}
	return nil
}

func (m *mockGearRepo) GetByID(_ context.Context, id string) (*model.Gear, error) {
	if g, ok := m.gears[id]; ok {
		return g, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockGearRepo) GetBySerial(_ context.Context, serial string) (*model.Gear, error) {
	for _, g := range m.gears {
		if g.SerialNumber != nil && *g.SerialNumber == serial {
			return g, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockGearRepo) List(_ context.Context, q *dto.ListGearsRequest) ([]model.Gear, int64, error) {
	var all []model.Gear
	for _, g := range m.gears {
		if q.Category != "" && g.Category != q.Category {
			continue
		}
		if q.Status != "" && g.Status != q.Status {
			continue
		}
		if q.AvailableOnly && g.AvailableQuantity == 0 {
			continue
		}
		all = append(all, *g)
	}
	return all, int64(len(all)), nil
}

func (m *mockGearRepo) ListAll(_ context.Context) ([]model.Gear, error) {
	var all []model.Gear
	for _, g := range m.gears {
		all = append(all, *g)
	}
	return all, nil
}

func (m *mockGearRepo) Update(_ context.Context, gear *model.Gear) error {
	if _, ok := m.gears[gear.GearID]; !ok {
		return gorm.ErrRecordNotFound
	}
	m.gears[gear.GearID] = gear
	return nil
}

func (m *mockGearRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.gears[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.gears, id)
	return nil
}

func (m *mockGearRepo) Count(_ context.Context) (int64, error) {
	return int64(len(m.gears)), nil
}

func (m *mockGearRepo) CountByStatus(_ context.Context, status string) (int64, error) {
	var n int64
	for _, g := range m.gears {
		if g.Status == status {
			n++
		}
	}
	return n, nil
}

func (m *mockGearRepo) SumQuantities(_ context.Context) (int64, int64, error) {
	var total, available int64
	for _, g := range m.gears {
		total += int64(g.Quantity)
		available += int64(g.AvailableQuantity)
	}
	return total, available, nil
}

func (m *mockGearRepo) RecomputeAvailability(_ context.Context) ([]dto.AvailabilityFix, error) {
	return m.fixes, nil
}

// ── Mock RequestRepository ──

type mockRequestRepo struct {
	gears    *mockGearRepo
	requests map[string]*model.GearRequest
	seq      int
}

func newMockRequestRepo(gears *mockGearRepo) *mockRequestRepo {
	return &mockRequestRepo{gears: gears, requests: make(map[string]*model.GearRequest)}
}

func (m *mockRequestRepo) CreateWithLines(_ context.Context, req *model.GearRequest, lines []model.GearRequestGear) error {
	// Validate in gear_id order, mirroring the real repository's lock order.
	ordered := make([]*model.GearRequestGear, len(lines))
	for i := range lines {
		ordered[i] = &lines[i]
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].GearID < ordered[j].GearID })

	for _, line := range ordered {
		gear, ok := m.gears.gears[line.GearID]
		if !ok {
			return gorm.ErrRecordNotFound
		}
		if !gear.Requestable() {
			return repository.ErrGearNotRequestable
		}
		if line.Quantity > gear.AvailableQuantity {
			return &repository.InsufficientQuantityError{
				GearID:    gear.GearID,
				GearName:  gear.Name,
				Requested: line.Quantity,
				Available: gear.AvailableQuantity,
			}
		}
	}

	m.seq++
	req.RequestID = fmt.Sprintf("req-%d", m.seq)
	for i := range lines {
		lines[i].RequestID = req.RequestID
		lines[i].LineID = fmt.Sprintf("line-%d-%d", m.seq, i)
	}
	req.Lines = lines
	m.requests[req.RequestID] = req
	return nil
}

func (m *mockRequestRepo) Approve(_ context.Context, requestID, adminID string, dueDate time.Time, notes string) (*model.GearRequest, error) {
	req, ok := m.requests[requestID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	if req.Status != model.RequestStatusPending {
		return nil, repository.ErrRequestNotPending
	}

	checked := make([]model.GearRequestGear, len(req.Lines))
	copy(checked, req.Lines)
	sort.Slice(checked, func(i, j int) bool { return checked[i].GearID < checked[j].GearID })
	for _, line := range checked {
		gear := m.gears.gears[line.GearID]
		if gear == nil {
			return nil, gorm.ErrRecordNotFound
		}
		if line.Quantity > gear.AvailableQuantity {
			return nil, &repository.InsufficientQuantityError{
				GearID:    gear.GearID,
				GearName:  gear.Name,
				Requested: line.Quantity,
				Available: gear.AvailableQuantity,
			}
		}
	}
	for _, line := range req.Lines {
		gear := m.gears.gears[line.GearID]
		gear.AvailableQuantity -= line.Quantity
		gear.CheckedOutTo = &req.UserID
		gear.CurrentRequestID = &req.RequestID
		due := dueDate
		gear.DueDate = &due
		if gear.AvailableQuantity == 0 {
			gear.Status = model.GearStatusCheckedOut
		}
	}

	now := time.Now()
	req.Status = model.RequestStatusApproved
	req.DueDate = &dueDate
	req.AdminNotes = notes
	req.ApprovedAt = &now
	req.ApprovedBy = &adminID
	return req, nil
}

func (m *mockRequestRepo) Reject(_ context.Context, requestID, adminID, notes string) (*model.GearRequest, error) {
	req, ok := m.requests[requestID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	if req.Status != model.RequestStatusPending {
		return nil, repository.ErrRequestNotPending
	}
	req.Status = model.RequestStatusRejected
	req.AdminNotes = notes
	req.ApprovedBy = &adminID
	return req, nil
}

func (m *mockRequestRepo) Cancel(_ context.Context, requestID, userID string) (*model.GearRequest, error) {
	req, ok := m.requests[requestID]
	if !ok || req.UserID != userID {
		return nil, gorm.ErrRecordNotFound
	}
	if req.Status != model.RequestStatusPending {
		return nil, repository.ErrRequestNotPending
	}
	req.Status = model.RequestStatusCancelled
	return req, nil
}

func (m *mockRequestRepo) GetByID(_ context.Context, id string) (*model.GearRequest, error) {
	if r, ok := m.requests[id]; ok {
		return r, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockRequestRepo) List(_ context.Context, q *dto.ListRequestsRequest) ([]model.GearRequest, int64, error) {
	var all []model.GearRequest
	for _, r := range m.requests {
		if q.Status != "" && r.Status != q.Status {
			continue
		}
		if q.UserID != "" && r.UserID != q.UserID {
			continue
		}
		all = append(all, *r)
	}
	return all, int64(len(all)), nil
}

func (m *mockRequestRepo) ListByUser(_ context.Context, userID string, _, _ int) ([]model.GearRequest, int64, error) {
	var all []model.GearRequest
	for _, r := range m.requests {
		if r.UserID == userID {
			all = append(all, *r)
		}
	}
	return all, int64(len(all)), nil
}

func (m *mockRequestRepo) ListApprovedByUser(_ context.Context, userID string) ([]model.GearRequest, error) {
	var all []model.GearRequest
	for _, r := range m.requests {
		if r.UserID == userID && (r.Status == model.RequestStatusApproved || r.Status == model.RequestStatusOverdue) {
			all = append(all, *r)
		}
	}
	return all, nil
}

func (m *mockRequestRepo) MarkOverdue(_ context.Context, cutoff time.Time) ([]model.GearRequest, error) {
	var overdue []model.GearRequest
	for _, r := range m.requests {
		if r.Status == model.RequestStatusApproved && r.DueDate != nil && r.DueDate.Before(cutoff) {
			r.Status = model.RequestStatusOverdue
			overdue = append(overdue, *r)
		}
	}
	return overdue, nil
}

func (m *mockRequestRepo) Count(_ context.Context) (int64, error) {
	return int64(len(m.requests)), nil
}

func (m *mockRequestRepo) CountByStatus(_ context.Context, status string) (int64, error) {
	var n int64
	for _, r := range m.requests {
		if r.Status == status {
			n++
		}
	}
	return n, nil
}

func (m *mockRequestRepo) CountDistinctRequesters(_ context.Context) (int64, error) {
	seen := make(map[string]bool)
	for _, r := range m.requests {
		seen[r.UserID] = true
	}
	return int64(len(seen)), nil
}

// ── Mock CheckinRepository ──

type mockCheckinRepo struct {
	gears    *mockGearRepo
	requests *mockRequestRepo
	checkins map[string]*model.Checkin
	seq      int
}

func newMockCheckinRepo(gears *mockGearRepo, requests *mockRequestRepo) *mockCheckinRepo {
	return &mockCheckinRepo{gears: gears, requests: requests, checkins: make(map[string]*model.Checkin)}
}

func (m *mockCheckinRepo) line(requestID, gearID string) *model.GearRequestGear {
	req, ok := m.requests.requests[requestID]
	if !ok {
		return nil
	}
	for i := range req.Lines {
		if req.Lines[i].GearID == gearID {
			return &req.Lines[i]
		}
	}
	return nil
}

func (m *mockCheckinRepo) Create(_ context.Context, c *model.Checkin) error {
	req, ok := m.requests.requests[c.RequestID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if req.UserID != c.UserID {
		return repository.ErrNotRequestOwner
	}
	if req.Status != model.RequestStatusApproved && req.Status != model.RequestStatusOverdue {
		return repository.ErrRequestNotCheckedOut
	}

	line := m.line(c.RequestID, c.GearID)
	if line == nil {
		return repository.ErrLineNotFound
	}

	pending := 0
	for _, existing := range m.checkins {
		if existing.RequestID == c.RequestID && existing.GearID == c.GearID &&
			existing.Status == model.CheckinStatusPending {
			pending += existing.Quantity
		}
	}
	outstanding := line.Outstanding() - pending
	if c.Quantity > outstanding {
		name := c.GearID
		if g, ok := m.gears.gears[c.GearID]; ok {
			name = g.Name
		}
		return &repository.ExcessReturnError{
			GearName:    name,
			Returned:    c.Quantity,
			Outstanding: outstanding,
		}
	}

	m.seq++
	c.CheckinID = fmt.Sprintf("checkin-%d", m.seq)
	c.Status = model.CheckinStatusPending
	m.checkins[c.CheckinID] = c
	return nil
}

func (m *mockCheckinRepo) Approve(_ context.Context, checkinID, adminID string) (*model.Checkin, error) {
	c, ok := m.checkins[checkinID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	if c.Status != model.CheckinStatusPending {
		return nil, repository.ErrCheckinNotPending
	}

	line := m.line(c.RequestID, c.GearID)
	gear := m.gears.gears[c.GearID]
	if line == nil || gear == nil {
		return nil, gorm.ErrRecordNotFound
	}

	line.ReturnedQuantity += c.Quantity
	if line.ReturnedQuantity > line.Quantity {
		line.ReturnedQuantity = line.Quantity
	}
	gear.AvailableQuantity += c.Quantity
	if gear.AvailableQuantity > gear.Quantity {
		gear.AvailableQuantity = gear.Quantity
	}
	switch {
	case c.Condition == model.ConditionDamaged:
		gear.Status = model.GearStatusUnderRepair
	case gear.Status == model.GearStatusCheckedOut && gear.AvailableQuantity > 0:
		gear.Status = model.GearStatusAvailable
	}
	if gear.AvailableQuantity == gear.Quantity {
		gear.CheckedOutTo = nil
		gear.CurrentRequestID = nil
		gear.DueDate = nil
	}

	now := time.Now()
	c.Status = model.CheckinStatusCompleted
	c.ApprovedBy = &adminID
	c.CompletedAt = &now

	req := m.requests.requests[c.RequestID]
	allReturned := true
	for i := range req.Lines {
		if req.Lines[i].Outstanding() > 0 {
			allReturned = false
			break
		}
	}
	if allReturned && (req.Status == model.RequestStatusApproved || req.Status == model.RequestStatusOverdue) {
		req.Status = model.RequestStatusCompleted
	}
	return c, nil
}

func (m *mockCheckinRepo) Reject(_ context.Context, checkinID, adminID, notes string) (*model.Checkin, error) {
	c, ok := m.checkins[checkinID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	if c.Status != model.CheckinStatusPending {
		return nil, repository.ErrCheckinNotPending
	}
	c.Status = model.CheckinStatusRejected
	c.ApprovedBy = &adminID
	if notes != "" {
		c.Notes = notes
	}
	return c, nil
}

func (m *mockCheckinRepo) GetByID(_ context.Context, id string) (*model.Checkin, error) {
	if c, ok := m.checkins[id]; ok {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCheckinRepo) List(_ context.Context, q *dto.ListCheckinsRequest) ([]model.Checkin, int64, error) {
	var all []model.Checkin
	for _, c := range m.checkins {
		if q.Status != "" && c.Status != q.Status {
			continue
		}
		if q.UserID != "" && c.UserID != q.UserID {
			continue
		}
		all = append(all, *c)
	}
	return all, int64(len(all)), nil
}

func (m *mockCheckinRepo) ListByUser(_ context.Context, userID string, _, _ int) ([]model.Checkin, int64, error) {
	var all []model.Checkin
	for _, c := range m.checkins {
		if c.UserID == userID {
			all = append(all, *c)
		}
	}
	return all, int64(len(all)), nil
}

func (m *mockCheckinRepo) Count(_ context.Context) (int64, error) {
	return int64(len(m.checkins)), nil
}

func (m *mockCheckinRepo) CountByStatus(_ context.Context, status string) (int64, error) {
	var n int64
	for _, c := range m.checkins {
		if c.Status == status {
			n++
		}
	}
	return n, nil
}

// ── Mock NotificationRepository ──

type mockNotificationRepo struct {
	notifications []*model.Notification
	seq           int
}

func newMockNotificationRepo() *mockNotificationRepo {
	return &mockNotificationRepo{}
}

func (m *mockNotificationRepo) Create(_ context.Context, n *model.Notification) error {
	m.seq++
	n.NotificationID = fmt.Sprintf("notif-%d", m.seq)
	m.notifications = append(m.notifications, n)
	return nil
}

func (m *mockNotificationRepo) CreateBatch(ctx context.Context, ns []model.Notification) error {
	for i := range ns {
		n := ns[i]
		if err := m.Create(ctx, &n); err != nil {
			return err
		}
	}
	return nil
}

func (m *mockNotificationRepo) List(_ context.Context, userID string, unreadOnly bool, _, _ int) ([]model.Notification, int64, error) {
	var out []model.Notification
	for _, n := range m.notifications {
		if n.UserID != userID {
			continue
		}
		if unreadOnly && n.IsRead {
			continue
		}
		out = append(out, *n)
	}
	return out, int64(len(out)), nil
}

func (m *mockNotificationRepo) MarkRead(_ context.Context, userID, notificationID string) error {
	for _, n := range m.notifications {
		if n.NotificationID == notificationID && n.UserID == userID {
			n.IsRead = true
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (m *mockNotificationRepo) MarkAllRead(_ context.Context, userID string) error {
	for _, n := range m.notifications {
		if n.UserID == userID {
			n.IsRead = true
		}
	}
	return nil
}

func (m *mockNotificationRepo) Delete(_ context.Context, userID, notificationID string) error {
	for i, n := range m.notifications {
		if n.NotificationID == notificationID && n.UserID == userID {
			m.notifications = append(m.notifications[:i], m.notifications[i+1:]...)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (m *mockNotificationRepo) CountUnread(_ context.Context, userID string) (int64, error) {
	var n int64
	for _, notif := range m.notifications {
		if notif.UserID == userID && !notif.IsRead {
			n++
		}
	}
	return n, nil
}

func (m *mockNotificationRepo) CountAllUnread(_ context.Context) (int64, error) {
	var n int64
	for _, notif := range m.notifications {
		if !notif.IsRead {
			n++
		}
	}
	return n, nil
}

// forUser collects the notification types delivered to one user.
func (m *mockNotificationRepo) forUser(userID string) []string {
	var types []string
	for _, n := range m.notifications {
		if n.UserID == userID {
			types = append(types, n.Type)
		}
	}
	return types
}

// ── Mock ActivityRepository ──

type mockActivityRepo struct {
	entries []*model.ActivityLog
}

func newMockActivityRepo() *mockActivityRepo {
	return &mockActivityRepo{}
}

func (m *mockActivityRepo) Append(_ context.Context, a *model.ActivityLog) error {
	m.entries = append(m.entries, a)
	return nil
}

func (m *mockActivityRepo) List(_ context.Context, q *dto.ListActivitiesRequest) ([]model.ActivityLog, int64, error) {
	var out []model.ActivityLog
	for _, a := range m.entries {
		if q.Action != "" && a.Action != q.Action {
			continue
		}
		out = append(out, *a)
	}
	return out, int64(len(out)), nil
}

// ── Mock PushRepository ──

type mockPushRepo struct {
	queue []*model.PushMessage
	seq   int
}

func newMockPushRepo() *mockPushRepo {
	return &mockPushRepo{}
}

func (m *mockPushRepo) Enqueue(_ context.Context, msg *model.PushMessage) error {
	m.seq++
	msg.PushID = fmt.Sprintf("push-%d", m.seq)
	msg.Status = model.PushStatusPending
	m.queue = append(m.queue, msg)
	return nil
}

func (m *mockPushRepo) DequeuePending(_ context.Context, limit int) ([]model.PushMessage, error) {
	var out []model.PushMessage
	for _, msg := range m.queue {
		if msg.Status == model.PushStatusPending {
			msg.Status = model.PushStatusProcessing
			out = append(out, *msg)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (m *mockPushRepo) MarkSent(_ context.Context, id string) error {
	for _, msg := range m.queue {
		if msg.PushID == id {
			now := time.Now()
			msg.Status = model.PushStatusSent
			msg.SentAt = &now
			msg.Attempts++
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (m *mockPushRepo) MarkFailed(_ context.Context, id string) error {
	for _, msg := range m.queue {
		if msg.PushID == id {
			msg.Status = model.PushStatusFailed
			msg.Attempts++
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

// ── Recording publisher ──

type publishedEvent struct {
	Table  string
	Action string
	ID     string
}

// recordPublisher captures every published change event so tests can
// assert exactly one event per mutation.
type recordPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *recordPublisher) Publish(table, action, id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{Table: table, Action: action, ID: id})
}

func (p *recordPublisher) count(table, action string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, ev := range p.events {
		if ev.Table == table && ev.Action == action {
			n++
		}
	}
	return n
}

func containsType(types []string, want string) bool {
	for _, t := range types {
		if t == want {
			return true
		}
	}
	return false
}

// ── Shared fixture ──

// testEnv bundles the mocks and a fully wired repository aggregate.
type testEnv struct {
	users         *mockUserRepo
	gears         *mockGearRepo
	requests      *mockRequestRepo
	checkins      *mockCheckinRepo
	notifications *mockNotificationRepo
	activity      *mockActivityRepo
	push          *mockPushRepo
	publisher     *recordPublisher
	repo          *repository.Repository
}

// newNotifier wires a notifier against the env's stores and a disabled
// mailer, so tests can inspect delivered notifications and queued pushes.
func (e *testEnv) newNotifier() *notifier {
	mailer := mail.NewMailer(&config.MailConfig{}, zap.NewNop())
	return newNotifier(e.notifications, e.push, mailer, e.publisher, zap.NewNop())
}

func (e *testEnv) seedUser(name, role string) *model.User {
	u := &model.User{
		Email:    strings.ToLower(strings.ReplaceAll(name, " ", ".")) + "@example.com",
		FullName: name,
		Role:     role,
		Status:   model.UserStatusActive,
	}
	_ = e.users.Create(context.Background(), u)
	return u
}

func (e *testEnv) seedGear(name string, quantity int) *model.Gear {
	g := &model.Gear{
		Name:              name,
		Status:            model.GearStatusAvailable,
		Quantity:          quantity,
		AvailableQuantity: quantity,
	}
	_ = e.gears.Create(context.Background(), g)
	return g
}

func newTestEnv() *testEnv {
	users := newMockUserRepo()
	gears := newMockGearRepo()
	requests := newMockRequestRepo(gears)
	checkins := newMockCheckinRepo(gears, requests)
	notifications := newMockNotificationRepo()
	activity := newMockActivityRepo()
	push := newMockPushRepo()

	return &testEnv{
		users:         users,
		gears:         gears,
		requests:      requests,
		checkins:      checkins,
		notifications: notifications,
		activity:      activity,
		push:          push,
		publisher:     &recordPublisher{},
		repo: &repository.Repository{
			User:         users,
			Gear:         gears,
			Request:      requests,
			Checkin:      checkins,
			Notification: notifications,
			Activity:     activity,
			Push:         push,
		},
	}
}
