package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sundayekpa25-ai/projectsandtasks/logging"
	"github.com/sundayekpa25-ai/projectsandtasks/models"
	"github.com/sundayekpa25-ai/projectsandtasks/utils"
)

// NotificationService persists workflow notifications and fans out optional
// emails. Everything here is best-effort: a notification failure is logged
// and swallowed so it can never fail the workflow operation that fired it.
type NotificationService struct {
	notificationsCollection *mongo.Collection
	usersCollection         *mongo.Collection
	emailBreaker            *gobreaker.CircuitBreaker
}

func NewNotificationService(notificationsCollection, usersCollection *mongo.Collection) *NotificationService {
	emailBreaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "email-cb",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Logger.Infof("Event ID: CIRCUIT_BREAKER_STATE_CHANGE, Description: Circuit Breaker '%s' changed from '%s' to '%s'", name, from.String(), to.String())
		},
	})

	return &NotificationService{
		notificationsCollection: notificationsCollection,
		usersCollection:         usersCollection,
		emailBreaker:            emailBreaker,
	}
}

// Notify records one notification for one user and queues an email for it.
func (ns *NotificationService) Notify(ctx context.Context, userID primitive.ObjectID, ntype models.NotificationType, title, message string, relatedProject, relatedTask *primitive.ObjectID) {
	ns.NotifyMany(ctx, []primitive.ObjectID{userID}, ntype, title, message, relatedProject, relatedTask)
}

// NotifyMany records one notification per recipient. No deduplication is
// done across events; each call produces one record per user id.
func (ns *NotificationService) NotifyMany(ctx context.Context, userIDs []primitive.ObjectID, ntype models.NotificationType, title, message string, relatedProject, relatedTask *primitive.ObjectID) {
	if len(userIDs) == 0 {
		return
	}

	now := time.Now()
	docs := make([]interface{}, 0, len(userIDs))
	for _, id := range userIDs {
		docs = append(docs, models.Notification{
			ID:             primitive.NewObjectID(),
			UserID:         id,
			Type:           ntype,
			Title:          title,
			Message:        message,
			RelatedProject: relatedProject,
			RelatedTask:    relatedTask,
			CreatedAt:      now,
		})
	}

	if _, err := ns.notificationsCollection.InsertMany(ctx, docs); err != nil {
		logging.Logger.Errorf("Event ID: NOTIFICATION_CREATE_FAILED, Description: Failed to create notifications of type %s: %v", ntype, err)
		return
	}

	// Email delivery is detached from the caller; failures stay here.
	go ns.sendEmails(userIDs, title, message)
}

func (ns *NotificationService) sendEmails(userIDs []primitive.ObjectID, title, message string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cursor, err := ns.usersCollection.Find(ctx, bson.M{"_id": bson.M{"$in": userIDs}})
	if err != nil {
		logging.Logger.Errorf("Event ID: NOTIFICATION_EMAIL_LOOKUP_FAILED, Description: Failed to look up recipients: %v", err)
		return
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		logging.Logger.Errorf("Event ID: NOTIFICATION_EMAIL_DECODE_FAILED, Description: Failed to decode recipients: %v", err)
		return
	}

	body := message + "\n\nPlease log in to your dashboard to view more details."
	for _, user := range users {
		if user.Email == "" {
			continue
		}
		to := user.Email
		_, err := ns.emailBreaker.Execute(func() (interface{}, error) {
			return nil, utils.SendEmail(to, title, body)
		})
		if err != nil {
			logging.Logger.Warnf("Event ID: NOTIFICATION_EMAIL_FAILED, Description: Failed to send email to %s: %v", to, err)
		}
	}
}

// ListForUser returns the user's notifications, newest first.
func (ns *NotificationService) ListForUser(ctx context.Context, userID primitive.ObjectID) ([]models.Notification, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := ns.notificationsCollection.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve notifications: %v", err)
	}
	defer cursor.Close(ctx)

	notifications := []models.Notification{}
	if err := cursor.All(ctx, &notifications); err != nil {
		return nil, fmt.Errorf("failed to decode notifications: %v", err)
	}
	return notifications, nil
}

// MarkRead flips one of the user's notifications to read.
func (ns *NotificationService) MarkRead(ctx context.Context, userID, notificationID primitive.ObjectID) error {
	result, err := ns.notificationsCollection.UpdateOne(ctx,
		bson.M{"_id": notificationID, "userId": userID},
		bson.M{"$set": bson.M{"isRead": true}})
	if err != nil {
		return fmt.Errorf("failed to mark notification as read: %v", err)
	}
	if result.MatchedCount == 0 {
		return errNotFound("notification not found")
	}
	return nil
}

// MarkAllRead flips all of the user's notifications to read.
func (ns *NotificationService) MarkAllRead(ctx context.Context, userID primitive.ObjectID) error {
	_, err := ns.notificationsCollection.UpdateMany(ctx,
		bson.M{"userId": userID, "isRead": false},
		bson.M{"$set": bson.M{"isRead": true}})
	if err != nil {
		return fmt.Errorf("failed to mark notifications as read: %v", err)
	}
	return nil
}
