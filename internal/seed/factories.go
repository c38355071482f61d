// Package seed provides helpers to create demo data for the application
// database. These helpers are intended for development and testing only.
package seed

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"mix/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DemoPassword is the login password for every seeded account.
const DemoPassword = "Demo!Password123"

var demoPasswordHash string

func init() {
	// MinCost keeps seeding fast; these accounts only exist in development.
	hash, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	demoPasswordHash = string(hash)
}

var (
	genders = []string{"male", "female", "non_binary", "other"}

	interestPool = []string{
		"hiking", "cooking", "live music", "photography", "yoga", "climbing",
		"board games", "travel", "running", "film", "wine", "coffee",
		"surfing", "painting", "karaoke", "cycling", "reading", "dancing",
	}

	openers = []string{
		"hey! love your photos",
		"so, %s huh? tell me more",
		"what's the best trip you've been on?",
		"okay your bio made me laugh",
		"coffee or wine for a first date?",
		"finally someone else who's into %s",
	}
)

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db  *gorm.DB
	rng *rand.Rand
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB) *Factory {
	seed := time.Now().UnixNano()
	gofakeit.Seed(seed)
	return &Factory{db: db, rng: rand.New(rand.NewSource(seed))}
}

// CreateUser constructs and persists a sample user with a profile.
// Optional override functions may modify the generated user before saving.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	user := &models.User{
		Email:    fmt.Sprintf("%s%d@example.com", gofakeit.Username(), gofakeit.Number(100, 999)),
		Password: demoPasswordHash,
		Role:     models.RoleMember,
		Status:   models.UserStatusActive,
		Tier:     f.randomTier(),
	}
	lastSeen := gofakeit.DateRange(time.Now().Add(-14*24*time.Hour), time.Now())
	user.LastSeenAt = &lastSeen

	for _, override := range overrides {
		override(user)
	}
	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}

	profile := f.buildProfile(user.ID)
	if err := f.db.Create(profile).Error; err != nil {
		return nil, err
	}
	user.Profile = profile
	return user, nil
}

func (f *Factory) buildProfile(userID uint) *models.Profile {
	age := 18 + f.rng.Intn(28)
	birthDate := time.Now().AddDate(-age, -f.rng.Intn(12), -f.rng.Intn(28))

	interests := make([]string, 0, 4)
	for _, i := range f.rng.Perm(len(interestPool))[:3+f.rng.Intn(2)] {
		interests = append(interests, interestPool[i])
	}
	interestsJSON, _ := json.Marshal(interests)

	return &models.Profile{
		UserID:      userID,
		DisplayName: gofakeit.FirstName(),
		BirthDate:   birthDate,
		Gender:      genders[f.rng.Intn(len(genders))],
		Bio:         gofakeit.Sentence(8 + f.rng.Intn(10)),
		City:        gofakeit.City(),
		Latitude:    gofakeit.Latitude(),
		Longitude:   gofakeit.Longitude(),
		Interests:   interestsJSON,
	}
}

func (f *Factory) randomTier() models.SubscriptionTier {
	switch f.rng.Intn(10) {
	case 0:
		return models.TierGold
	case 1, 2:
		return models.TierPlus
	default:
		return models.TierFree
	}
}

// CreateSwipe persists one swipe decision between two seeded users.
func (f *Factory) CreateSwipe(swiper, swiped *models.User, action models.SwipeAction, at time.Time) (*models.Swipe, error) {
	swipe := &models.Swipe{
		SwiperID:  swiper.ID,
		SwipedID:  swiped.ID,
		Action:    action,
		CreatedAt: at,
	}
	if err := f.db.Create(swipe).Error; err != nil {
		return nil, err
	}
	return swipe, nil
}

// CreateMatch persists a match for a mutually-liking pair.
func (f *Factory) CreateMatch(a, b *models.User, at time.Time) (*models.Match, error) {
	match := &models.Match{UserAID: a.ID, UserBID: b.ID, CreatedAt: at}
	if err := f.db.Create(match).Error; err != nil {
		return nil, err
	}
	return match, nil
}

// CreateConversation fills a match with a short back-and-forth of text
// messages, leaving the last message from each side unread.
func (f *Factory) CreateConversation(match *models.Match, length int) ([]models.Message, error) {
	if length <= 0 {
		length = 4 + f.rng.Intn(10)
	}

	participants := [2]uint{match.UserAID, match.UserBID}
	at := match.CreatedAt.Add(time.Duration(5+f.rng.Intn(55)) * time.Minute)

	messages := make([]models.Message, 0, length)
	for i := 0; i < length; i++ {
		sender := participants[i%2]
		msg := models.Message{
			MatchID:   match.ID,
			SenderID:  sender,
			Kind:      models.MessageText,
			Content:   f.messageText(i),
			IsRead:    i < length-2,
			CreatedAt: at,
		}
		if msg.IsRead {
			readAt := at.Add(time.Duration(1+f.rng.Intn(30)) * time.Minute)
			msg.ReadAt = &readAt
		}
		if err := f.db.Create(&msg).Error; err != nil {
			return nil, err
		}
		messages = append(messages, msg)
		at = at.Add(time.Duration(1+f.rng.Intn(180)) * time.Minute)
	}
	return messages, nil
}

func (f *Factory) messageText(position int) string {
	if position == 0 {
		opener := openers[f.rng.Intn(len(openers))]
		if strings.Contains(opener, "%s") {
			return fmt.Sprintf(opener, interestPool[f.rng.Intn(len(interestPool))])
		}
		return opener
	}
	return gofakeit.Sentence(3 + f.rng.Intn(9))
}

// CreateReport persists a report from one user against another.
func (f *Factory) CreateReport(reporter, reported *models.User) (*models.Report, error) {
	reasons := []models.ReportReason{
		models.ReportReasonFakeProfile,
		models.ReportReasonHarassment,
		models.ReportReasonInappropriate,
	}
	report := &models.Report{
		ReporterID: reporter.ID,
		ReportedID: reported.ID,
		Reason:     reasons[f.rng.Intn(len(reasons))],
		Details:    gofakeit.Sentence(10),
		Status:     models.ReportStatusPending,
	}
	if err := f.db.Create(report).Error; err != nil {
		return nil, err
	}
	return report, nil
}

// CreateSubscription persists an active subscription matching the user's tier.
func (f *Factory) CreateSubscription(user *models.User) (*models.Subscription, error) {
	periodEnd := time.Now().AddDate(0, 1, 0)
	sub := &models.Subscription{
		UserID:                 user.ID,
		Tier:                   user.Tier,
		Status:                 models.SubscriptionActive,
		ProviderSubscriptionID: "sub_" + gofakeit.LetterN(14),
		ProviderCustomerID:     "cus_" + gofakeit.LetterN(14),
		CurrentPeriodEnd:       &periodEnd,
	}
	if err := f.db.Create(sub).Error; err != nil {
		return nil, err
	}
	return sub, nil
}
