package service

import (
	"context"
	"fmt"
	"log"
	"strconv"

	"ecolearn/internal/models"
	"ecolearn/internal/repository"
)

// NotificationService writes in-app notifications and fans achievement
// events out to linked guardians. Every method is best-effort: a failed
// notification write is logged and swallowed so it can never fail the
// business operation that triggered it.
type NotificationService struct {
	notifications *repository.NotificationRepository
	users         *repository.UserRepository
	email         *EmailService
}

// NewNotificationService creates a new notification service
func NewNotificationService(
	notifications *repository.NotificationRepository,
	users *repository.UserRepository,
	email *EmailService,
) *NotificationService {
	return &NotificationService{
		notifications: notifications,
		users:         users,
		email:         email,
	}
}

// Notify writes one in-app notification, logging instead of failing
func (s *NotificationService) Notify(userID int64, notifType, title, message, relatedTo, relatedID string) {
	_, err := s.notifications.Create(&models.Notification{
		UserID:    userID,
		Type:      notifType,
		Title:     title,
		Message:   message,
		RelatedTo: relatedTo,
		RelatedID: relatedID,
	})
	if err != nil {
		log.Printf("notification write failed for user %d: %v", userID, err)
	}
}

// List returns a user's notifications
func (s *NotificationService) List(userID int64, unreadOnly bool, limit int) ([]models.Notification, error) {
	notifications, err := s.notifications.ListByUser(userID, unreadOnly, limit)
	if err != nil {
		return nil, err
	}
	if notifications == nil {
		notifications = []models.Notification{}
	}
	return notifications, nil
}

// CountUnread returns the user's unread count
func (s *NotificationService) CountUnread(userID int64) (int, error) {
	return s.notifications.CountUnread(userID)
}

// MarkRead marks one notification read
func (s *NotificationService) MarkRead(userID, notificationID int64) error {
	return s.notifications.MarkRead(userID, notificationID)
}

// MarkAllRead marks all of a user's notifications read
func (s *NotificationService) MarkAllRead(userID int64) error {
	return s.notifications.MarkAllRead(userID)
}

// AnnounceBadges notifies the student of each new badge and fans the news
// out to every linked guardian. Guardian failures never abort the fan-out.
func (s *NotificationService) AnnounceBadges(student *models.User, badges []Badge) {
	if len(badges) == 0 {
		return
	}
	guardians, err := s.users.GetGuardians(student.ID)
	if err != nil {
		log.Printf("guardian lookup failed for user %d: %v", student.ID, err)
		guardians = nil
	}

	for _, badge := range badges {
		s.Notify(student.ID, models.NotifyBadge,
			"New badge earned!",
			fmt.Sprintf("You earned the %s %s badge!", badge.Name, badge.Icon),
			"badge", badge.Name)

		for _, guardian := range guardians {
			s.Notify(guardian.ID, models.NotifyChildBadge,
				fmt.Sprintf("%s earned a badge", student.Username),
				fmt.Sprintf("%s earned the %s %s badge!", student.Username, badge.Name, badge.Icon),
				"badge", badge.Name)
			if s.email != nil && guardian.Email != "" {
				err := s.email.SendGuardianAlert(context.Background(), guardian.Email,
					student.Username, "New badge earned",
					fmt.Sprintf("%s earned the %s badge.", student.Username, badge.Name))
				if err != nil {
					log.Printf("guardian email failed for %s: %v", guardian.Email, err)
				}
			}
		}
	}
}

// AnnounceStruggle alerts every linked guardian that the student failed an
// activity. The student isn't notified; they already saw their score.
func (s *NotificationService) AnnounceStruggle(student *models.User, category string, percentage float64) {
	guardians, err := s.users.GetGuardians(student.ID)
	if err != nil {
		log.Printf("guardian lookup failed for user %d: %v", student.ID, err)
		return
	}
	for _, guardian := range guardians {
		s.Notify(guardian.ID, models.NotifyParentAlert,
			"Behavioral Alert",
			fmt.Sprintf("Your child %s frequently struggles with %s games (scored %.0f%%).",
				student.Username, category, percentage),
			"category", category)
	}
}

// AnnounceLevelUp notifies the student and guardians of a level change
func (s *NotificationService) AnnounceLevelUp(student *models.User, newLevel int64) {
	levelStr := strconv.FormatInt(newLevel, 10)
	s.Notify(student.ID, models.NotifyLevelUp,
		"Level up!",
		fmt.Sprintf("You reached level %d! Keep going!", newLevel),
		"level", levelStr)

	guardians, err := s.users.GetGuardians(student.ID)
	if err != nil {
		log.Printf("guardian lookup failed for user %d: %v", student.ID, err)
		return
	}
	for _, guardian := range guardians {
		s.Notify(guardian.ID, models.NotifyChildLevel,
			fmt.Sprintf("%s leveled up", student.Username),
			fmt.Sprintf("%s reached level %d!", student.Username, newLevel),
			"level", levelStr)
	}
}

// AnnounceCourseCompletion notifies the student and guardians that a course
// is fully complete
func (s *NotificationService) AnnounceCourseCompletion(student *models.User, course *models.Course) {
	courseID := strconv.FormatInt(course.ID, 10)
	s.Notify(student.ID, models.NotifyCourse,
		"Course completed!",
		fmt.Sprintf("You finished the %s course! %s", course.Title, course.Icon),
		"course", courseID)

	guardians, err := s.users.GetGuardians(student.ID)
	if err != nil {
		log.Printf("guardian lookup failed for user %d: %v", student.ID, err)
		return
	}
	for _, guardian := range guardians {
		s.Notify(guardian.ID, models.NotifyChildCourse,
			fmt.Sprintf("%s completed a course", student.Username),
			fmt.Sprintf("%s finished the %s course!", student.Username, course.Title),
			"course", courseID)
		if s.email != nil && guardian.Email != "" {
			err := s.email.SendGuardianAlert(context.Background(), guardian.Email,
				student.Username, "Course completed",
				fmt.Sprintf("%s finished the %s course.", student.Username, course.Title))
			if err != nil {
				log.Printf("guardian email failed for %s: %v", guardian.Email, err)
			}
		}
	}
}
