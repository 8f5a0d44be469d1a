package services

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"leadrouter_backend/internal/models"
	"leadrouter_backend/internal/repositories"
)

// In-memory фейки репозиториев для юнит-тестов сервисов.

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*models.User)}
}

func (r *fakeUserRepo) FindByID(id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (r *fakeUserRepo) FindByHandle(handle string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Handle == handle {
			clone := *u
			return &clone, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r *fakeUserRepo) FindActiveWithDeclarations() ([]models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.User
	for _, u := range r.users {
		if u.IsActive {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeUserRepo) Create(u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Handle == u.Handle {
			return repositories.ErrUserAlreadyExists
		}
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	clone := *u
	r.users[u.ID] = &clone
	return nil
}

func (r *fakeUserRepo) Update(u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *u
	r.users[u.ID] = &clone
	return nil
}

func (r *fakeUserRepo) Deactivate(userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return repositories.ErrUserNotFound
	}
	u.IsActive = false
	return nil
}

func (r *fakeUserRepo) SetCategories(userID string, categories []models.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[userID]; ok {
		u.Categories = categories
	}
	return nil
}

func (r *fakeUserRepo) SetCities(userID string, cities []models.City) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[userID]; ok {
		u.Cities = cities
	}
	return nil
}

func (r *fakeUserRepo) SetSubCategories(userID string, subs []models.SubCategory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[userID]; ok {
		u.SubCategories = subs
	}
	return nil
}

func (r *fakeUserRepo) CountAll() (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.users)), nil
}

type fakeRequestRepo struct {
	mu       sync.Mutex
	requests map[string]*models.Request
}

func newFakeRequestRepo() *fakeRequestRepo {
	return &fakeRequestRepo{requests: make(map[string]*models.Request)}
}

func (r *fakeRequestRepo) Create(req *models.Request) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now()
	}
	if req.Status == "" {
		req.Status = models.RequestStatusNew
	}
	clone := *req
	r.requests[req.ID] = &clone
	return nil
}

func (r *fakeRequestRepo) FindByID(id string) (*models.Request, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[id]
	if !ok {
		return nil, repositories.ErrRequestNotFound
	}
	clone := *req
	return &clone, nil
}

func (r *fakeRequestRepo) FindByStatus(status models.RequestStatus) ([]models.Request, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Request
	for _, req := range r.requests {
		if req.Status == status {
			out = append(out, *req)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeRequestRepo) Update(req *models.Request) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *req
	r.requests[req.ID] = &clone
	return nil
}

func (r *fakeRequestRepo) UpdateStatus(id string, from, to models.RequestStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[id]
	if !ok || req.Status != from {
		return repositories.ErrRequestNotFound
	}
	req.Status = to
	return nil
}

func (r *fakeRequestRepo) MarkRoundAllocated(id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[id]
	if !ok {
		return repositories.ErrRequestNotFound
	}
	req.RoundCount++
	t := at
	req.LastRoundAt = &t
	return nil
}

func (r *fakeRequestRepo) DeleteOlderThan(cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var deleted int64
	for id, req := range r.requests {
		if req.Status.IsTerminal() && req.UpdatedAt.Before(cutoff) {
			delete(r.requests, id)
			deleted++
		}
	}
	return deleted, nil
}

type fakeDistributionRepo struct {
	mu    sync.Mutex
	items map[string]*models.Distribution
	// requests нужен, чтобы FindByID отдавал предзагруженную заявку,
	// как делает GORM-реализация
	requests *fakeRequestRepo
	now      func() time.Time
}

func newFakeDistributionRepo(requests *fakeRequestRepo) *fakeDistributionRepo {
	return &fakeDistributionRepo{
		items:    make(map[string]*models.Distribution),
		requests: requests,
		now:      time.Now,
	}
}

func (r *fakeDistributionRepo) Create(d *models.Distribution) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.items {
		if existing.RequestID == d.RequestID && existing.UserID == d.UserID &&
			existing.Status == models.DistributionStatusPending {
			return repositories.ErrPendingExists
		}
	}
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = r.now()
	}
	clone := *d
	r.items[d.ID] = &clone
	return nil
}

func (r *fakeDistributionRepo) FindByID(id string) (*models.Distribution, error) {
	r.mu.Lock()
	d, ok := r.items[id]
	if !ok {
		r.mu.Unlock()
		return nil, repositories.ErrDistributionNotFound
	}
	clone := *d
	r.mu.Unlock()

	if r.requests != nil {
		if req, err := r.requests.FindByID(clone.RequestID); err == nil {
			clone.Request = *req
		}
	}
	return &clone, nil
}

func (r *fakeDistributionRepo) FindByRequest(requestID string) ([]models.Distribution, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Distribution
	for _, d := range r.items {
		if d.RequestID == requestID {
			out = append(out, *d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeDistributionRepo) FindPendingByRequest(requestID string) ([]models.Distribution, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Distribution
	for _, d := range r.items {
		if d.RequestID == requestID && d.Status == models.DistributionStatusPending {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (r *fakeDistributionRepo) FindExpiredPending(now time.Time) ([]models.Distribution, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Distribution
	for _, d := range r.items {
		if d.Status == models.DistributionStatusPending && d.ExpiresAt.Before(now) {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (r *fakeDistributionRepo) FindByUser(userID string, limit, offset int) ([]models.Distribution, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Distribution
	for _, d := range r.items {
		if d.UserID == userID {
			out = append(out, *d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeDistributionRepo) UpdateFromPending(id string, to models.DistributionStatus, fields map[string]interface{}) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.items[id]
	if !ok || d.Status != models.DistributionStatusPending {
		return false, nil
	}
	d.Status = to
	if v, ok := fields["responded_at"]; ok {
		t := v.(time.Time)
		d.RespondedAt = &t
	}
	if v, ok := fields["response_time"]; ok {
		rt := v.(int64)
		d.ResponseTime = &rt
	}
	if v, ok := fields["is_converted"]; ok {
		d.IsConverted = v.(bool)
	}
	return true, nil
}

func (r *fakeDistributionRepo) CountPendingByRequest(requestID string) (int64, error) {
	pending, _ := r.FindPendingByRequest(requestID)
	return int64(len(pending)), nil
}

func (r *fakeDistributionRepo) HasAccepted(requestID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.items {
		if d.RequestID == requestID && d.Status == models.DistributionStatusAccepted {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeDistributionRepo) CountByUsers(userIDs []string) (map[string]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[string]int64, len(userIDs))
	ids := make(map[string]bool, len(userIDs))
	for _, id := range userIDs {
		ids[id] = true
	}
	for _, d := range r.items {
		if ids[d.UserID] {
			counts[d.UserID]++
		}
	}
	return counts, nil
}

func (r *fakeDistributionRepo) UserStats(userID string) (*repositories.UserDistributionStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stats := &repositories.UserDistributionStats{}
	var totalResponse int64
	var responses int64
	for _, d := range r.items {
		if d.UserID != userID {
			continue
		}
		stats.Total++
		switch d.Status {
		case models.DistributionStatusAccepted:
			stats.Accepted++
		case models.DistributionStatusRejected:
			stats.Rejected++
		case models.DistributionStatusExpired:
			stats.Expired++
		}
		if d.IsConverted {
			stats.Converted++
		}
		if d.ResponseTime != nil {
			totalResponse += *d.ResponseTime
			responses++
		}
	}
	if responses > 0 {
		stats.AvgResponseTimeSecs = float64(totalResponse) / float64(responses)
	}
	return stats, nil
}

type fakeReferenceRepo struct {
	mu         sync.Mutex
	categories map[string]*models.Category
	cities     map[string]*models.City
	subs       map[string]*models.SubCategory
}

func newFakeReferenceRepo() *fakeReferenceRepo {
	return &fakeReferenceRepo{
		categories: make(map[string]*models.Category),
		cities:     make(map[string]*models.City),
		subs:       make(map[string]*models.SubCategory),
	}
}

func (r *fakeReferenceRepo) FindCategoryByID(id string) (*models.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.categories[id]
	if !ok {
		return nil, repositories.ErrCategoryNotFound
	}
	clone := *c
	return &clone, nil
}

func (r *fakeReferenceRepo) FindCityByID(id string) (*models.City, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.cities[id]
	if !ok {
		return nil, repositories.ErrCityNotFound
	}
	clone := *c
	return &clone, nil
}

func (r *fakeReferenceRepo) FindSubCategoriesByIDs(ids []string) ([]models.SubCategory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.SubCategory
	for _, id := range ids {
		sub, ok := r.subs[id]
		if !ok {
			return nil, repositories.ErrSubCategoryNotFound
		}
		out = append(out, *sub)
	}
	return out, nil
}

func (r *fakeReferenceRepo) FindActiveCategories() ([]models.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Category
	for _, c := range r.categories {
		if c.IsActive {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *fakeReferenceRepo) FindActiveCities() ([]models.City, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.City
	for _, c := range r.cities {
		if c.IsActive {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *fakeReferenceRepo) FindActiveSubCategories(categoryID string) ([]models.SubCategory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.SubCategory
	for _, s := range r.subs {
		if s.CategoryID == categoryID && s.IsActive {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *fakeReferenceRepo) CreateCategory(c *models.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	clone := *c
	r.categories[c.ID] = &clone
	return nil
}

func (r *fakeReferenceRepo) CreateCity(c *models.City) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	clone := *c
	r.cities[c.ID] = &clone
	return nil
}

func (r *fakeReferenceRepo) CreateSubCategory(s *models.SubCategory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	clone := *s
	r.subs[s.ID] = &clone
	return nil
}

func (r *fakeReferenceRepo) SetCategoryActive(id string, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.categories[id]
	if !ok {
		return repositories.ErrCategoryNotFound
	}
	c.IsActive = active
	return nil
}

func (r *fakeReferenceRepo) SetCityActive(id string, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.cities[id]
	if !ok {
		return repositories.ErrCityNotFound
	}
	c.IsActive = active
	return nil
}

func (r *fakeReferenceRepo) SetSubCategoryActive(id string, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.subs[id]
	if !ok {
		return repositories.ErrSubCategoryNotFound
	}
	s.IsActive = active
	return nil
}

type fakeAuditRepo struct {
	mu     sync.Mutex
	events []models.AuditEvent
}

func newFakeAuditRepo() *fakeAuditRepo {
	return &fakeAuditRepo{}
}

func (r *fakeAuditRepo) Create(event *models.AuditEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	r.events = append(r.events, *event)
	return nil
}

func (r *fakeAuditRepo) FindRecent(limit int) ([]models.AuditEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) > limit {
		return r.events[len(r.events)-limit:], nil
	}
	return r.events, nil
}
