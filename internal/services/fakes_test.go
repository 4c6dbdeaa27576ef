package services

import (
	"context"
	"sort"
	"sync"

	"tripplanner/internal/models"
	"tripplanner/internal/storage"

	"gorm.io/gorm"
)

// 本文件提供各仓储接口的内存实现，供服务层测试在无数据库环境下运行。

type edgeKey struct {
	ownerID uint
	otherID uint
}

type fakeFriendshipRepo struct {
	mu    sync.Mutex
	edges map[edgeKey]*models.FriendshipEdge
}

func newFakeFriendshipRepo() *fakeFriendshipRepo {
	return &fakeFriendshipRepo{edges: make(map[edgeKey]*models.FriendshipEdge)}
}

func (f *fakeFriendshipRepo) GetEdge(_ context.Context, ownerID, otherID uint) (*models.FriendshipEdge, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	edge, ok := f.edges[edgeKey{ownerID, otherID}]
	if !ok {
		return nil, nil
	}
	copied := *edge
	return &copied, nil
}

func (f *fakeFriendshipRepo) CreateEdge(_ context.Context, edge *models.FriendshipEdge) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *edge
	f.edges[edgeKey{edge.OwnerID, edge.OtherID}] = &copied
	return nil
}

func (f *fakeFriendshipRepo) UpdateEdgeStatus(_ context.Context, ownerID, otherID uint, status models.EdgeStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	edge, ok := f.edges[edgeKey{ownerID, otherID}]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	edge.Status = status
	return nil
}

func (f *fakeFriendshipRepo) DeleteEdge(_ context.Context, ownerID, otherID uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.edges, edgeKey{ownerID, otherID})
	return nil
}

func (f *fakeFriendshipRepo) ListFriendIDs(_ context.Context, ownerID uint) ([]uint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []uint
	for key, edge := range f.edges {
		if key.ownerID == ownerID && edge.Status == models.EdgeStatusFriend {
			ids = append(ids, key.otherID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (f *fakeFriendshipRepo) WithTx(ctx context.Context, fn func(repo storage.FriendshipRepository) error) error {
	return fn(f)
}

type fakeUserRepo struct {
	mu         sync.Mutex
	users      map[uint]*models.User
	identities map[string]uint // provider + ":" + providerUserID -> userID
	nextID     uint
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		users:      make(map[uint]*models.User),
		identities: make(map[string]uint),
		nextID:     1,
	}
}

func (f *fakeUserRepo) addUser(user *models.User) *models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	if user.ID == 0 {
		user.ID = f.nextID
	}
	if user.ID >= f.nextID {
		f.nextID = user.ID + 1
	}
	copied := *user
	f.users[user.ID] = &copied
	return user
}

func (f *fakeUserRepo) Create(_ context.Context, user *models.User) error {
	f.addUser(user)
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id uint) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *user
	return &copied, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) Update(_ context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[user.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	copied := *user
	f.users[user.ID] = &copied
	return nil
}

func (f *fakeUserRepo) UpdateProfileImageURL(_ context.Context, id uint, imageURL string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	user.ProfileImageURL = imageURL
	return nil
}

func (f *fakeUserRepo) SearchUsers(_ context.Context, query string, currentUserID uint) ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []models.User
	for _, user := range f.users {
		if user.ID != currentUserID {
			result = append(result, *user)
		}
	}
	return result, nil
}

func (f *fakeUserRepo) GetBasicInfoByID(_ context.Context, id uint) (*models.UserBasicInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &models.UserBasicInfo{ID: user.ID, Username: user.Username, ProfileImageURL: user.ProfileImageURL}, nil
}

func (f *fakeUserRepo) GetMultipleBasicInfoByIDs(_ context.Context, userIDs []uint) ([]*models.UserBasicInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []*models.UserBasicInfo
	for _, id := range userIDs {
		if user, ok := f.users[id]; ok {
			result = append(result, &models.UserBasicInfo{ID: user.ID, Username: user.Username, ProfileImageURL: user.ProfileImageURL})
		}
	}
	return result, nil
}

func (f *fakeUserRepo) GetByFederatedIdentity(_ context.Context, provider, providerUserID string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	userID, ok := f.identities[provider+":"+providerUserID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	user, ok := f.users[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *user
	return &copied, nil
}

func (f *fakeUserRepo) CreateFederatedIdentity(_ context.Context, identity *models.FederatedIdentity) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.identities[identity.Provider+":"+identity.ProviderUserID] = identity.UserID
	return nil
}

type memberKey struct {
	itineraryID uint
	userID      uint
}

type fakeItineraryRepo struct {
	mu              sync.Mutex
	itineraries     map[uint]*models.Itinerary
	likes           map[memberKey]bool
	recommendations map[memberKey]bool
	nextID          uint
}

func newFakeItineraryRepo() *fakeItineraryRepo {
	return &fakeItineraryRepo{
		itineraries:     make(map[uint]*models.Itinerary),
		likes:           make(map[memberKey]bool),
		recommendations: make(map[memberKey]bool),
		nextID:          1,
	}
}

func (f *fakeItineraryRepo) Create(_ context.Context, itinerary *models.Itinerary) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if itinerary.ID == 0 {
		itinerary.ID = f.nextID
		f.nextID++
	}
	copied := *itinerary
	f.itineraries[itinerary.ID] = &copied
	return nil
}

func (f *fakeItineraryRepo) GetByID(_ context.Context, id uint) (*models.Itinerary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	itinerary, ok := f.itineraries[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *itinerary
	return &copied, nil
}

func (f *fakeItineraryRepo) ListByOwner(_ context.Context, ownerID uint) ([]models.Itinerary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []models.Itinerary
	for _, itinerary := range f.itineraries {
		if itinerary.OwnerID == ownerID {
			result = append(result, *itinerary)
		}
	}
	return result, nil
}

func (f *fakeItineraryRepo) ListOthers(_ context.Context, excludeOwnerID uint) ([]models.Itinerary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []models.Itinerary
	for _, itinerary := range f.itineraries {
		if itinerary.OwnerID != excludeOwnerID {
			result = append(result, *itinerary)
		}
	}
	return result, nil
}

func (f *fakeItineraryRepo) ListByDestination(_ context.Context, destination string, excludeOwnerID uint) ([]models.Itinerary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []models.Itinerary
	for _, itinerary := range f.itineraries {
		if itinerary.OwnerID == excludeOwnerID {
			continue
		}
		destinations, err := itinerary.GetDestinations()
		if err != nil {
			continue
		}
		for _, name := range destinations {
			if name == destination {
				result = append(result, *itinerary)
				break
			}
		}
	}
	return result, nil
}

func (f *fakeItineraryRepo) Delete(_ context.Context, id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.itineraries, id)
	for key := range f.likes {
		if key.itineraryID == id {
			delete(f.likes, key)
		}
	}
	for key := range f.recommendations {
		if key.itineraryID == id {
			delete(f.recommendations, key)
		}
	}
	return nil
}

func (f *fakeItineraryRepo) HasLike(_ context.Context, itineraryID, userID uint) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.likes[memberKey{itineraryID, userID}], nil
}

func (f *fakeItineraryRepo) AddLike(_ context.Context, itineraryID, userID uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.likes[memberKey{itineraryID, userID}] = true
	return nil
}

func (f *fakeItineraryRepo) RemoveLike(_ context.Context, itineraryID, userID uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.likes, memberKey{itineraryID, userID})
	return nil
}

func (f *fakeItineraryRepo) CountLikes(_ context.Context, itineraryID uint) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for key := range f.likes {
		if key.itineraryID == itineraryID {
			count++
		}
	}
	return count, nil
}

func (f *fakeItineraryRepo) HasRecommendation(_ context.Context, itineraryID, userID uint) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.recommendations[memberKey{itineraryID, userID}], nil
}

func (f *fakeItineraryRepo) AddRecommendation(_ context.Context, itineraryID, userID uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recommendations[memberKey{itineraryID, userID}] = true
	return nil
}

func (f *fakeItineraryRepo) RemoveRecommendation(_ context.Context, itineraryID, userID uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.recommendations, memberKey{itineraryID, userID})
	return nil
}

func (f *fakeItineraryRepo) CountRecommendations(_ context.Context, itineraryID uint) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for key := range f.recommendations {
		if key.itineraryID == itineraryID {
			count++
		}
	}
	return count, nil
}

func (f *fakeItineraryRepo) UpdateCounters(_ context.Context, itineraryID uint, likeCount, recommendationCount int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	itinerary, ok := f.itineraries[itineraryID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	itinerary.LikeCount = likeCount
	itinerary.RecommendationCount = recommendationCount
	return nil
}

func (f *fakeItineraryRepo) WithTx(ctx context.Context, fn func(repo storage.ItineraryRepository) error) error {
	return fn(f)
}

type fakeCommentRepo struct {
	mu       sync.Mutex
	comments []models.ItineraryComment
	nextID   uint
}

func newFakeCommentRepo() *fakeCommentRepo {
	return &fakeCommentRepo{nextID: 1}
}

func (f *fakeCommentRepo) ExistsExact(_ context.Context, comment *models.ItineraryComment) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.comments {
		if f.comments[i].Matches(comment) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeCommentRepo) Append(_ context.Context, comment *models.ItineraryComment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if comment.ID == 0 {
		comment.ID = f.nextID
		f.nextID++
	}
	f.comments = append(f.comments, *comment)
	return nil
}

func (f *fakeCommentRepo) DeleteExact(_ context.Context, comment *models.ItineraryComment) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var kept []models.ItineraryComment
	var removed int64
	for i := range f.comments {
		if f.comments[i].Matches(comment) {
			removed++
			continue
		}
		kept = append(kept, f.comments[i])
	}
	f.comments = kept
	return removed, nil
}

func (f *fakeCommentRepo) ListByItinerary(_ context.Context, itineraryID uint) ([]models.ItineraryComment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []models.ItineraryComment
	for i := range f.comments {
		if f.comments[i].ItineraryID == itineraryID {
			result = append(result, f.comments[i])
		}
	}
	return result, nil
}

func (f *fakeCommentRepo) WithTx(ctx context.Context, fn func(repo storage.CommentRepository) error) error {
	return fn(f)
}

type previewKey struct {
	ownerID uint
	peerID  uint
}

type fakeChatRepo struct {
	mu           sync.Mutex
	threads      map[string]*models.ChatThread
	messages     map[uint][]models.ChatMessage
	previews     map[previewKey]*models.ChatPreview
	nextThreadID uint
	nextMsgID    uint
}

func newFakeChatRepo() *fakeChatRepo {
	return &fakeChatRepo{
		threads:      make(map[string]*models.ChatThread),
		messages:     make(map[uint][]models.ChatMessage),
		previews:     make(map[previewKey]*models.ChatPreview),
		nextThreadID: 1,
		nextMsgID:    1,
	}
}

func (f *fakeChatRepo) GetThreadByPairKey(_ context.Context, pairKey string) (*models.ChatThread, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	thread, ok := f.threads[pairKey]
	if !ok {
		return nil, nil
	}
	copied := *thread
	return &copied, nil
}

func (f *fakeChatRepo) CreateThread(_ context.Context, thread *models.ChatThread) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if thread.ID == 0 {
		thread.ID = f.nextThreadID
		f.nextThreadID++
	}
	copied := *thread
	f.threads[thread.PairKey] = &copied
	return nil
}

func (f *fakeChatRepo) AppendMessage(_ context.Context, message *models.ChatMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if message.ID == 0 {
		message.ID = f.nextMsgID
		f.nextMsgID++
	}
	f.messages[message.ThreadID] = append(f.messages[message.ThreadID], *message)
	return nil
}

func (f *fakeChatRepo) ListMessages(_ context.Context, threadID uint) ([]models.ChatMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.ChatMessage(nil), f.messages[threadID]...), nil
}

func (f *fakeChatRepo) UpsertPreview(_ context.Context, preview *models.ChatPreview) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *preview
	f.previews[previewKey{preview.OwnerID, preview.PeerID}] = &copied
	return nil
}

func (f *fakeChatRepo) GetPreview(_ context.Context, ownerID, peerID uint) (*models.ChatPreview, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	preview, ok := f.previews[previewKey{ownerID, peerID}]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *preview
	return &copied, nil
}

func (f *fakeChatRepo) ListPreviews(_ context.Context, ownerID uint) ([]models.ChatPreview, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []models.ChatPreview
	for key, preview := range f.previews {
		if key.ownerID == ownerID {
			result = append(result, *preview)
		}
	}
	return result, nil
}

func (f *fakeChatRepo) SetPreviewUnread(_ context.Context, ownerID, peerID uint, unread bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	preview, ok := f.previews[previewKey{ownerID, peerID}]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	preview.IsUnread = unread
	return nil
}

func (f *fakeChatRepo) SetPreviewUsername(_ context.Context, ownerID, peerID uint, username string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	preview, ok := f.previews[previewKey{ownerID, peerID}]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	preview.Username = username
	return nil
}

func (f *fakeChatRepo) WithTx(ctx context.Context, fn func(repo storage.ChatRepository) error) error {
	return fn(f)
}

// fakeProducer 记录发送的消息，供断言推送副作用。
type fakeProducer struct {
	mu       sync.Mutex
	messages []fakeProducedMessage
}

type fakeProducedMessage struct {
	topic   string
	key     []byte
	payload []byte
}

func (f *fakeProducer) SendMessage(_ context.Context, topic string, key []byte, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, fakeProducedMessage{topic: topic, key: key, payload: payload})
	return nil
}

func (f *fakeProducer) Close() {}

func (f *fakeProducer) sentTo(topic string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, msg := range f.messages {
		if msg.topic == topic {
			count++
		}
	}
	return count
}
