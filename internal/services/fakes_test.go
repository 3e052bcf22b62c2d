package services

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"carpool/internal/apperrors"
	"carpool/internal/models"
	"carpool/internal/repositories/interfaces"
	"carpool/internal/utils"
	"carpool/pkg/cache"
	"carpool/pkg/push"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memRideRepo applies the same guards as the Mongo filters under one lock.
type memRideRepo struct {
	mu    sync.Mutex
	rides map[primitive.ObjectID]*models.Ride
	scans int
}

func newMemRideRepo(rides ...*models.Ride) *memRideRepo {
	r := &memRideRepo{rides: make(map[primitive.ObjectID]*models.Ride)}
	for _, ride := range rides {
		if ride.ID.IsZero() {
			ride.ID = primitive.NewObjectID()
		}
		r.rides[ride.ID] = ride
	}
	return r
}

func cloneRide(r *models.Ride) *models.Ride {
	cp := *r
	cp.Passengers = append([]primitive.ObjectID{}, r.Passengers...)
	cp.Ratings = append([]models.RideRating{}, r.Ratings...)
	return &cp
}

func (r *memRideRepo) CreateRide(_ context.Context, ride *models.Ride) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ride.ID = primitive.NewObjectID()
	ride.CreatedAt = time.Now()
	ride.UpdatedAt = ride.CreatedAt
	r.rides[ride.ID] = cloneRide(ride)
	return nil
}

func (r *memRideRepo) GetRideByID(_ context.Context, id primitive.ObjectID) (*models.Ride, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ride, ok := r.rides[id]
	if !ok {
		return nil, apperrors.ErrRideNotFound
	}
	return cloneRide(ride), nil
}

func (r *memRideRepo) sorted(keep func(*models.Ride) bool) []*models.Ride {
	out := []*models.Ride{}
	for _, ride := range r.rides {
		if keep(ride) {
			out = append(out, cloneRide(ride))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

func (r *memRideRepo) ListRides(_ context.Context, _ *utils.PaginationParams) ([]*models.Ride, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.sorted(func(*models.Ride) bool { return true })
	return out, int64(len(out)), nil
}

func (r *memRideRepo) GetRidesByUser(_ context.Context, userID primitive.ObjectID) ([]*models.Ride, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sorted(func(ride *models.Ride) bool { return ride.Involves(userID) }), nil
}

func (r *memRideRepo) GetCompletedRidesByUser(_ context.Context, userID primitive.ObjectID) ([]*models.Ride, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sorted(func(ride *models.Ride) bool {
		return ride.Status == models.RideStatusCompleted && ride.Involves(userID)
	}), nil
}

func (r *memRideRepo) AddPassenger(_ context.Context, rideID, userID primitive.ObjectID) (*models.Ride, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ride, ok := r.rides[rideID]
	if !ok {
		return nil, false, apperrors.ErrRideNotFound
	}
	if ride.HasPassenger(userID) || !ride.HasFreeSeats() {
		return nil, false, nil
	}
	ride.Passengers = append(ride.Passengers, userID)
	return cloneRide(ride), true, nil
}

func (r *memRideRepo) UpdateStatus(_ context.Context, rideID primitive.ObjectID, from, to models.RideStatus) (*models.Ride, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ride, ok := r.rides[rideID]
	if !ok {
		return nil, false, apperrors.ErrRideNotFound
	}
	if ride.Status != from {
		return nil, false, nil
	}
	ride.Status = to
	return cloneRide(ride), true, nil
}

func (r *memRideRepo) AddRating(_ context.Context, rideID primitive.ObjectID, rating models.RideRating, expectedCount int, average float64) (*models.Ride, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ride, ok := r.rides[rideID]
	if !ok {
		return nil, false, apperrors.ErrRideNotFound
	}
	if len(ride.Ratings) != expectedCount || ride.HasRated(rating.User) {
		return nil, false, nil
	}
	ride.Ratings = append(ride.Ratings, rating)
	ride.AverageRating = average
	return cloneRide(ride), true, nil
}

func (r *memRideRepo) ScanUpcomingRides(_ context.Context, from time.Time, visit interfaces.RideVisitor) error {
	r.mu.Lock()
	rides := r.sorted(func(ride *models.Ride) bool { return !ride.Date.Before(from) })
	r.scans++
	r.mu.Unlock()
	for _, ride := range rides {
		if !visit(ride) {
			break
		}
	}
	return nil
}

func (r *memRideRepo) ScanAllRides(_ context.Context, visit interfaces.RideVisitor) error {
	r.mu.Lock()
	rides := r.sorted(func(*models.Ride) bool { return true })
	r.scans++
	r.mu.Unlock()
	for _, ride := range rides {
		if !visit(ride) {
			break
		}
	}
	return nil
}

type memChatRepo struct {
	mu       sync.Mutex
	chats    map[primitive.ObjectID]*models.Chat
	messages []*models.Message
}

func newMemChatRepo() *memChatRepo {
	return &memChatRepo{chats: make(map[primitive.ObjectID]*models.Chat)}
}

func cloneChat(c *models.Chat) *models.Chat {
	cp := *c
	cp.Participants = append([]primitive.ObjectID{}, c.Participants...)
	cp.UnreadCount = make(map[string]int, len(c.UnreadCount))
	for k, v := range c.UnreadCount {
		cp.UnreadCount[k] = v
	}
	return &cp
}

func (r *memChatRepo) CreateChat(_ context.Context, chat *models.Chat) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	chat.ID = primitive.NewObjectID()
	chat.CreatedAt = time.Now()
	chat.UpdatedAt = chat.CreatedAt
	r.chats[chat.ID] = cloneChat(chat)
	return nil
}

func (r *memChatRepo) GetChatByID(_ context.Context, id primitive.ObjectID) (*models.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	chat, ok := r.chats[id]
	if !ok {
		return nil, apperrors.ErrChatNotFound
	}
	return cloneChat(chat), nil
}

func (r *memChatRepo) FindChatByParticipants(_ context.Context, ids []primitive.ObjectID, exact bool) (*models.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, chat := range r.chats {
		if (exact && chat.MatchesExactly(ids)) || (!exact && chat.ContainsAll(ids)) {
			return cloneChat(chat), nil
		}
	}
	return nil, apperrors.ErrChatNotFound
}

func (r *memChatRepo) GetChatsByParticipant(_ context.Context, userID primitive.ObjectID) ([]*models.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*models.Chat{}
	for _, chat := range r.chats {
		if chat.HasParticipant(userID) {
			out = append(out, cloneChat(chat))
		}
	}
	return out, nil
}

func (r *memChatRepo) AppendMessage(_ context.Context, msg *models.Message, recipients []primitive.ObjectID) (*models.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	chat, ok := r.chats[msg.Chat]
	if !ok {
		return nil, apperrors.ErrChatNotFound
	}
	msg.ID = primitive.NewObjectID()
	msg.CreatedAt = time.Now()
	r.messages = append(r.messages, msg)

	for _, p := range recipients {
		chat.UnreadCount[p.Hex()]++
	}
	id := msg.ID
	chat.LastMessage = &id
	chat.UpdatedAt = msg.CreatedAt
	return cloneChat(chat), nil
}

func (r *memChatRepo) GetMessagesByChatID(_ context.Context, chatID primitive.ObjectID) ([]*models.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*models.Message{}
	for _, m := range r.messages {
		if m.Chat == chatID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *memChatRepo) MarkChatRead(_ context.Context, chatID, userID primitive.ObjectID) (*models.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	chat, ok := r.chats[chatID]
	if !ok {
		return nil, apperrors.ErrChatNotFound
	}
	for _, m := range r.messages {
		if m.Chat == chatID && !m.IsReadBy(userID) {
			m.ReadBy = append(m.ReadBy, userID)
		}
	}
	chat.UnreadCount[userID.Hex()] = 0
	return cloneChat(chat), nil
}

type memUserRepo struct {
	mu      sync.Mutex
	users   map[primitive.ObjectID]*models.User
	removed []string
}

func newMemUserRepo(users ...*models.User) *memUserRepo {
	r := &memUserRepo{users: make(map[primitive.ObjectID]*models.User)}
	for _, u := range users {
		if u.ID.IsZero() {
			u.ID = primitive.NewObjectID()
		}
		r.users[u.ID] = u
	}
	return r
}

func (r *memUserRepo) CreateUser(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return apperrors.ErrEmailTaken
		}
	}
	user.ID = primitive.NewObjectID()
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *memUserRepo) GetUserByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *memUserRepo) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperrors.ErrUserNotFound
}

func (r *memUserRepo) GetUsersByIDs(_ context.Context, ids []primitive.ObjectID) ([]*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*models.User{}
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			cp := *u
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memUserRepo) UpdateUser(_ context.Context, id primitive.ObjectID, update interfaces.UserUpdate) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	if update.Name != nil {
		u.Name = *update.Name
	}
	if update.Email != nil {
		u.Email = *update.Email
	}
	cp := *u
	return &cp, nil
}

func (r *memUserRepo) SearchUsers(_ context.Context, query string, limit int) ([]*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*models.User{}
	q := strings.ToLower(query)
	for _, u := range r.users {
		if len(out) == limit {
			break
		}
		if strings.Contains(strings.ToLower(u.Name), q) || strings.Contains(u.Email, q) {
			cp := *u
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memUserRepo) AddDeviceToken(_ context.Context, id primitive.ObjectID, platform models.DevicePlatform, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return apperrors.ErrUserNotFound
	}
	if platform == models.DevicePlatformFCM {
		u.DeviceTokens.FCM = append(u.DeviceTokens.FCM, token)
	} else {
		u.DeviceTokens.APNS = append(u.DeviceTokens.APNS, token)
	}
	return nil
}

func (r *memUserRepo) RemoveDeviceToken(_ context.Context, _ models.DevicePlatform, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removed = append(r.removed, token)
	return nil
}

// memCache stores values as-is and counts deletes.
type memCache struct {
	mu      sync.Mutex
	values  map[string]interface{}
	deletes int
}

func newMemCache() *memCache {
	return &memCache{values: make(map[string]interface{})}
}

func (c *memCache) Get(_ context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.values[key]
	if !ok {
		return cache.ErrCacheMiss
	}
	switch d := dest.(type) {
	case *[]*models.Ride:
		*d = v.([]*models.Ride)
	case *models.RideStats:
		*d = *v.(*models.RideStats)
	}
	return nil
}

func (c *memCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
	return nil
}

func (c *memCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deletes++
	for _, k := range keys {
		delete(c.values, k)
	}
	return nil
}

func (c *memCache) CheckRateLimit(_ context.Context, _ string, limit int64, window time.Duration) (*RateLimitResult, error) {
	return &RateLimitResult{Allowed: true, Limit: limit, Remaining: limit, ResetTime: time.Now().Add(window)}, nil
}

type recordingPublisher struct {
	mu   sync.Mutex
	keys []string
}

func (p *recordingPublisher) Publish(_ context.Context, routingKey string, _ interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, routingKey)
	return nil
}

func (p *recordingPublisher) published() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string{}, p.keys...)
}

// stallingPublisher blocks every publish until release is closed,
// ignoring the context like a dial that never times out.
type stallingPublisher struct {
	release chan struct{}
	mu      sync.Mutex
	n       int
}

func (p *stallingPublisher) Publish(context.Context, string, interface{}) error {
	<-p.release
	p.mu.Lock()
	p.n++
	p.mu.Unlock()
	return nil
}

func (p *stallingPublisher) calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.n
}

type fakePushProvider struct {
	mu           sync.Mutex
	sent         []*push.Notification
	unregistered map[string]bool
}

func (p *fakePushProvider) Send(_ context.Context, n *push.Notification) ([]*push.Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, n)
	results := make([]*push.Result, 0, len(n.Tokens))
	for _, token := range n.Tokens {
		gone := p.unregistered[token]
		results = append(results, &push.Result{Token: token, Success: !gone, Unregistered: gone})
	}
	return results, nil
}
