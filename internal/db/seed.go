package db

import (
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/matchmaking/internal/domain"
)

var seedInterests = []string{
	"hiking", "cooking", "travel", "music", "films", "running",
	"photography", "reading", "gaming", "yoga", "climbing", "art",
}

// SeedTestData resets the database and populates it with demo users and actions.
//
// Behavior:
//  1. Clears matches, actions, photos, interests and users.
//  2. Creates 20 users around London across all genders, with hashed
//     passwords, photos and 3 interests each.
//  3. Generates ~200 actions (~70% positive); every 3rd pair is made mutual.
//  4. Materializes matches for mutual pairs and recomputes the counters so
//     the data looks as if it came through RecordAction.
//
// Compatible with both MySQL and SQLite.
func SeedTestData(db *gorm.DB, log *slog.Logger) error {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	now := time.Now().UTC()

	if err := clearAll(db); err != nil {
		return err
	}
	log.Info("cleared existing data")

	interests := make([]Interest, len(seedInterests))
	for i, name := range seedInterests {
		interests[i] = Interest{Name: name}
	}
	if err := db.Create(&interests).Error; err != nil {
		return fmt.Errorf("failed to seed interests: %w", err)
	}

	// one hash is enough for demo accounts
	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	genders := []domain.Gender{domain.GenderMale, domain.GenderFemale, domain.GenderNonBinary}
	relTypes := []domain.RelationshipType{domain.RelationshipLongTerm, domain.RelationshipCasual, domain.RelationshipFriendship}

	users := make([]User, 0, 20)
	for i := 1; i <= 20; i++ {
		gender := genders[i%len(genders)]
		lat := 51.5074 + (r.Float64()-0.5)*0.8
		lng := -0.1278 + (r.Float64()-0.5)*1.2

		u := User{
			Username:          fmt.Sprintf("user%d", i),
			Email:             fmt.Sprintf("user%d@example.com", i),
			PasswordHash:      string(hash),
			Active:            true,
			LastActiveAt:      now.Add(-time.Duration(r.Intn(500)) * time.Hour),
			Gender:            gender,
			BirthDate:         now.AddDate(-(20 + r.Intn(20)), -r.Intn(12), 0),
			Latitude:          &lat,
			Longitude:         &lng,
			IsPremium:         i%7 == 0,
			Languages:         []string{"en"},
			RelationshipTypes: []domain.RelationshipType{relTypes[r.Intn(len(relTypes))]},
		}
		switch i % 4 {
		case 0:
			u.SetGenderInterest(domain.Everyone())
		case 1:
			u.SetGenderInterest(domain.Specific(domain.GenderFemale))
		case 2:
			u.SetGenderInterest(domain.Specific(domain.GenderMale))
		default:
			u.SetGenderInterest(domain.Specific(domain.GenderMale, domain.GenderNonBinary))
		}

		for p := 0; p < 1+r.Intn(4); p++ {
			u.Photos = append(u.Photos, Photo{
				URL:      fmt.Sprintf("https://img.example.com/%d/%d.jpg", i, p),
				Position: p,
			})
		}
		for _, k := range r.Perm(len(interests))[:3] {
			u.Interests = append(u.Interests, interests[k])
		}
		users = append(users, u)
	}
	if err := db.Create(&users).Error; err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}
	log.Info("seeded users", "count", len(users))

	// --- Actions ---
	insert := func(a Action) error {
		return db.Clauses(clause.OnConflict{DoNothing: true}).Create(&a).Error
	}
	counter := 0
	for _, actor := range users {
		for j := 0; j < 10; j++ {
			recipient := users[r.Intn(len(users))]
			if actor.ID == recipient.ID {
				continue
			}

			kind := domain.ActionPass
			if r.Intn(100) < 70 {
				kind = domain.ActionLike
				if r.Intn(10) == 0 {
					kind = domain.ActionSuperLike
				}
			}

			if counter%3 == 0 {
				kind = domain.ActionLike
				if err := insert(Action{SenderID: recipient.ID, ReceiverID: actor.ID, Kind: domain.ActionLike, CreatedAt: now}); err != nil {
					return fmt.Errorf("failed to seed action: %w", err)
				}
			}
			if err := insert(Action{SenderID: actor.ID, ReceiverID: recipient.ID, Kind: kind, CreatedAt: now}); err != nil {
				return fmt.Errorf("failed to seed action: %w", err)
			}
			counter++
		}
	}

	matches, err := seedMatches(db, now)
	if err != nil {
		return err
	}
	if err := recomputeCounters(db); err != nil {
		return err
	}
	log.Info("seeded actions", "attempted", counter, "matches", matches)
	return nil
}

func clearAll(db *gorm.DB) error {
	for _, table := range []string{"matches", "actions", "user_interests", "photos", "interests", "users"} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}

// seedMatches creates one active match per mutually positive pair.
func seedMatches(db *gorm.DB, now time.Time) (int, error) {
	var pairs []struct {
		A uint64
		B uint64
	}
	positive := domain.PositiveKinds()
	err := db.Table("actions AS x").
		Select("x.sender_id AS a, x.receiver_id AS b").
		Joins("JOIN actions AS y ON y.sender_id = x.receiver_id AND y.receiver_id = x.sender_id").
		Where("x.sender_id < x.receiver_id AND x.kind IN ? AND y.kind IN ?", positive, positive).
		Scan(&pairs).Error
	if err != nil {
		return 0, fmt.Errorf("failed to find mutual likes: %w", err)
	}
	if len(pairs) == 0 {
		return 0, nil
	}

	rows := make([]Match, len(pairs))
	for i, p := range pairs {
		rows[i] = Match{User1ID: p.A, User2ID: p.B, IsActive: true, MatchedAt: now}
	}
	if err := db.Create(&rows).Error; err != nil {
		return 0, fmt.Errorf("failed to seed matches: %w", err)
	}
	return len(rows), nil
}

func recomputeCounters(db *gorm.DB) error {
	err := db.Exec(`UPDATE users SET
		total_likes = (SELECT COUNT(*) FROM actions WHERE actions.receiver_id = users.id AND actions.kind IN ?),
		total_matches = (SELECT COUNT(*) FROM matches WHERE matches.is_active = ? AND (matches.user1_id = users.id OR matches.user2_id = users.id))`,
		domain.PositiveKinds(), true).Error
	if err != nil {
		return fmt.Errorf("failed to recompute counters: %w", err)
	}
	return nil
}
