package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"taskdeck/internal/database"
	"taskdeck/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ChatService handles conversations and messages in MongoDB.
type ChatService struct {
	conversations *mongo.Collection
	messages      *mongo.Collection
	orgs          *OrgService
	tiers         *TierService
}

// NewChatService creates a new chat service
func NewChatService(db *database.MongoDB, orgs *OrgService, tiers *TierService) *ChatService {
	return &ChatService{
		conversations: db.Collection(database.CollectionConversations),
		messages:      db.Collection(database.CollectionMessages),
		orgs:          orgs,
		tiers:         tiers,
	}
}

// CreateConversation creates a conversation. DIRECT conversations between the
// same two users are deduplicated; CARD_THREAD conversations are unique per
// card (enforced by index, surfaced here as the existing thread).
func (s *ChatService) CreateConversation(ctx context.Context, userID string, req models.CreateConversationRequest) (*models.Conversation, error) {
	if req.OrganizationID == "" {
		return nil, fmt.Errorf("%w: organizationId is required", ErrInvalidOperation)
	}
	switch req.Type {
	case models.ConversationDirect, models.ConversationGroup, models.ConversationCardThread:
	default:
		return nil, fmt.Errorf("%w: unknown conversation type %q", ErrInvalidOperation, req.Type)
	}
	if _, err := s.orgs.MemberRole(ctx, req.OrganizationID, userID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	participantSet := map[string]bool{userID: true}
	for _, id := range req.ParticipantIDs {
		participantSet[id] = true
	}
	if req.Type == models.ConversationDirect && len(participantSet) != 2 {
		return nil, fmt.Errorf("%w: a direct conversation has exactly two participants", ErrInvalidOperation)
	}

	var participants []models.Participant
	for id := range participantSet {
		if _, err := s.orgs.MemberRole(ctx, req.OrganizationID, id); err != nil {
			return nil, fmt.Errorf("%w: participant %s is not an organization member", ErrInvalidOperation, id)
		}
		role := "member"
		if id == userID {
			role = "admin"
		}
		participants = append(participants, models.Participant{UserID: id, Role: role, JoinedAt: now})
	}

	if req.Type == models.ConversationDirect {
		ids := make([]string, 0, 2)
		for id := range participantSet {
			ids = append(ids, id)
		}
		var existing models.Conversation
		err := s.conversations.FindOne(ctx, bson.M{
			"organizationId":      req.OrganizationID,
			"type":                models.ConversationDirect,
			"participants.userId": bson.M{"$all": ids},
			"participants":        bson.M{"$size": 2},
		}).Decode(&existing)
		if err == nil {
			return &existing, nil
		}
		if err != mongo.ErrNoDocuments {
			return nil, fmt.Errorf("failed to check for existing conversation: %w", err)
		}
	}

	if req.Type == models.ConversationCardThread {
		if req.CardID == "" {
			return nil, fmt.Errorf("%w: cardId is required for a card thread", ErrInvalidOperation)
		}
		var existing models.Conversation
		err := s.conversations.FindOne(ctx, bson.M{
			"type":   models.ConversationCardThread,
			"cardId": req.CardID,
		}).Decode(&existing)
		if err == nil {
			return &existing, nil
		}
		if err != mongo.ErrNoDocuments {
			return nil, fmt.Errorf("failed to check for existing thread: %w", err)
		}
	}

	conv := &models.Conversation{
		OrganizationID: req.OrganizationID,
		Type:           req.Type,
		Title:          req.Title,
		CardID:         req.CardID,
		Participants:   participants,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	result, err := s.conversations.InsertOne(ctx, conv)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("%w: card thread", ErrDuplicate)
		}
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}
	conv.ID = result.InsertedID.(primitive.ObjectID)
	return conv, nil
}

// GetConversation returns a conversation the user participates in.
func (s *ChatService) GetConversation(ctx context.Context, userID, conversationID string) (*models.Conversation, error) {
	oid, err := primitive.ObjectIDFromHex(conversationID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid conversation id", ErrInvalidOperation)
	}

	var conv models.Conversation
	err = s.conversations.FindOne(ctx, bson.M{"_id": oid}).Decode(&conv)
	if err == mongo.ErrNoDocuments {
		return nil, fmt.Errorf("%w: conversation", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}

	if !conv.HasParticipant(userID) {
		return nil, fmt.Errorf("%w: not a participant", ErrForbidden)
	}
	return &conv, nil
}

// ListConversations returns the user's conversations in an organization,
// most recently active first.
func (s *ChatService) ListConversations(ctx context.Context, userID, orgID string) ([]models.Conversation, error) {
	if _, err := s.orgs.MemberRole(ctx, orgID, userID); err != nil {
		return nil, err
	}

	cursor, err := s.conversations.Find(ctx, bson.M{
		"organizationId":      orgID,
		"participants.userId": userID,
	}, options.Find().SetSort(bson.D{{Key: "updatedAt", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer cursor.Close(ctx)

	var convs []models.Conversation
	if err := cursor.All(ctx, &convs); err != nil {
		return nil, fmt.Errorf("failed to decode conversations: %w", err)
	}
	return convs, nil
}

// AddParticipant adds an organization member to a GROUP conversation.
func (s *ChatService) AddParticipant(ctx context.Context, actorID, conversationID, newUserID string) (*models.Conversation, error) {
	conv, err := s.GetConversation(ctx, actorID, conversationID)
	if err != nil {
		return nil, err
	}
	if conv.Type != models.ConversationGroup {
		return nil, fmt.Errorf("%w: participants can only be added to group conversations", ErrInvalidOperation)
	}
	if conv.HasParticipant(newUserID) {
		return nil, fmt.Errorf("%w: already a participant", ErrDuplicate)
	}
	if _, err := s.orgs.MemberRole(ctx, conv.OrganizationID, newUserID); err != nil {
		return nil, fmt.Errorf("%w: user is not an organization member", ErrInvalidOperation)
	}

	now := time.Now().UTC()
	_, err = s.conversations.UpdateByID(ctx, conv.ID, bson.M{
		"$push": bson.M{"participants": models.Participant{UserID: newUserID, Role: "member", JoinedAt: now}},
		"$set":  bson.M{"updatedAt": now},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add participant: %w", err)
	}
	return s.GetConversation(ctx, actorID, conversationID)
}

// RemoveParticipant removes a user from a GROUP conversation. Users may
// remove themselves; the conversation admin may remove anyone.
func (s *ChatService) RemoveParticipant(ctx context.Context, actorID, conversationID, targetID string) error {
	conv, err := s.GetConversation(ctx, actorID, conversationID)
	if err != nil {
		return err
	}
	if conv.Type != models.ConversationGroup {
		return fmt.Errorf("%w: participants can only leave group conversations", ErrInvalidOperation)
	}
	if actorID != targetID {
		isAdmin := false
		for _, p := range conv.Participants {
			if p.UserID == actorID && p.Role == "admin" {
				isAdmin = true
				break
			}
		}
		if !isAdmin {
			return fmt.Errorf("%w: only the conversation admin may remove others", ErrForbidden)
		}
	}
	if !conv.HasParticipant(targetID) {
		return fmt.Errorf("%w: participant", ErrNotFound)
	}

	_, err = s.conversations.UpdateByID(ctx, conv.ID, bson.M{
		"$pull": bson.M{"participants": bson.M{"userId": targetID}},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	})
	if err != nil {
		return fmt.Errorf("failed to remove participant: %w", err)
	}
	return nil
}

// SendMessage appends a message. The sender must be a current participant;
// plan limits cap message length.
func (s *ChatService) SendMessage(ctx context.Context, userID, conversationID string, req models.SendMessageRequest) (*models.Message, error) {
	if req.Content == "" {
		return nil, fmt.Errorf("%w: content is required", ErrInvalidOperation)
	}

	conv, err := s.GetConversation(ctx, userID, conversationID)
	if err != nil {
		return nil, err
	}

	if s.tiers != nil {
		org, err := s.orgs.get(ctx, conv.OrganizationID)
		if err == nil {
			limits := s.tiers.Limits(org.Plan)
			if limits.MaxMessageLength > 0 && len(req.Content) > limits.MaxMessageLength {
				return nil, fmt.Errorf("%w: message exceeds %d characters", ErrLimitExceeded, limits.MaxMessageLength)
			}
		}
	}

	if req.ReplyToID != "" {
		replyOID, err := primitive.ObjectIDFromHex(req.ReplyToID)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid replyToId", ErrInvalidOperation)
		}
		count, err := s.messages.CountDocuments(ctx, bson.M{"_id": replyOID, "conversationId": conv.ID})
		if err != nil {
			return nil, fmt.Errorf("failed to check reply target: %w", err)
		}
		if count == 0 {
			return nil, fmt.Errorf("%w: replied-to message is not in this conversation", ErrInvalidOperation)
		}
	}

	now := time.Now().UTC()
	msg := &models.Message{
		ConversationID: conv.ID,
		SenderID:       userID,
		Content:        req.Content,
		ReplyToID:      req.ReplyToID,
		ReadBy:         []string{userID},
		CreatedAt:      now,
	}

	result, err := s.messages.InsertOne(ctx, msg)
	if err != nil {
		return nil, fmt.Errorf("failed to send message: %w", err)
	}
	msg.ID = result.InsertedID.(primitive.ObjectID)

	if _, err := s.conversations.UpdateByID(ctx, conv.ID, bson.M{"$set": bson.M{"updatedAt": now}}); err != nil {
		log.Printf("⚠️ Failed to touch conversation %s: %v", conversationID, err)
	}

	return msg, nil
}

// ListMessages returns messages newest-first, paginated with a before cursor.
func (s *ChatService) ListMessages(ctx context.Context, userID, conversationID string, before time.Time, limit int) ([]models.Message, error) {
	conv, err := s.GetConversation(ctx, userID, conversationID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	filter := bson.M{"conversationId": conv.ID}
	if !before.IsZero() {
		filter["createdAt"] = bson.M{"$lt": before}
	}

	cursor, err := s.messages.Find(ctx, filter, options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(int64(limit)))
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer cursor.Close(ctx)

	var msgs []models.Message
	if err := cursor.All(ctx, &msgs); err != nil {
		return nil, fmt.Errorf("failed to decode messages: %w", err)
	}
	return msgs, nil
}

// MarkRead records that the user has read a message.
func (s *ChatService) MarkRead(ctx context.Context, userID, conversationID, messageID string) error {
	conv, err := s.GetConversation(ctx, userID, conversationID)
	if err != nil {
		return err
	}
	oid, err := primitive.ObjectIDFromHex(messageID)
	if err != nil {
		return fmt.Errorf("%w: invalid message id", ErrInvalidOperation)
	}

	result, err := s.messages.UpdateOne(ctx,
		bson.M{"_id": oid, "conversationId": conv.ID},
		bson.M{"$addToSet": bson.M{"readBy": userID}})
	if err != nil {
		return fmt.Errorf("failed to mark read: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: message", ErrNotFound)
	}
	return nil
}

// PurgeOldMessages deletes messages older than the cutoff. Used by the
// retention job; conversations themselves are kept.
func (s *ChatService) PurgeOldMessages(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.messages.DeleteMany(ctx, bson.M{"createdAt": bson.M{"$lt": cutoff}})
	if err != nil {
		return 0, fmt.Errorf("failed to purge messages: %w", err)
	}
	return result.DeletedCount, nil
}

// PurgeOldMessagesForOrg deletes an organization's messages older than the
// cutoff. Retention differs per plan, so the job calls this per org.
func (s *ChatService) PurgeOldMessagesForOrg(ctx context.Context, orgID string, cutoff time.Time) (int64, error) {
	cursor, err := s.conversations.Find(ctx,
		bson.M{"organizationId": orgID},
		options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return 0, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer cursor.Close(ctx)

	var ids []primitive.ObjectID
	for cursor.Next(ctx) {
		var doc struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return 0, err
		}
		ids = append(ids, doc.ID)
	}
	if err := cursor.Err(); err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	result, err := s.messages.DeleteMany(ctx, bson.M{
		"conversationId": bson.M{"$in": ids},
		"createdAt":      bson.M{"$lt": cutoff},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to purge messages: %w", err)
	}
	return result.DeletedCount, nil
}
