package seed

import (
	"context"
	"fmt"

	"chatapp/internal/middleware"
	"chatapp/internal/models"

	"gorm.io/gorm"
)

// clearOrder lists tables children first. Roles are fixed data and survive.
var clearOrder = []string{
	"group_message_reads",
	"group_messages",
	"messages",
	"group_roles",
	"group_members",
	"groups",
	"friends",
	"friend_requests",
	"users",
}

// Summary counts what a run created.
type Summary struct {
	Users           int
	Friendships     int
	PendingRequests int
	Groups          int
	Memberships     int
	Messages        int
	GroupMessages   int
}

// Seeder applies presets to a database.
type Seeder struct {
	db      *gorm.DB
	factory *Factory
}

// NewSeeder returns a Seeder writing to db.
func NewSeeder(db *gorm.DB, opts Options) (*Seeder, error) {
	f, err := NewFactory(db, opts)
	if err != nil {
		return nil, err
	}
	return &Seeder{db: db, factory: f}, nil
}

// ClearAll deletes every user-generated row.
func (s *Seeder) ClearAll(ctx context.Context) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, table := range clearOrder {
			if err := tx.Exec("DELETE FROM " + table).Error; err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}
		return nil
	})
}

// ApplyPreset seeds the built-in preset called name.
func (s *Seeder) ApplyPreset(ctx context.Context, name string) (*Summary, error) {
	p, err := FindPreset(name)
	if err != nil {
		return nil, err
	}
	return s.Apply(ctx, p)
}

// Apply seeds users, then friendships on a ring so every user gets
// FriendsPerUser neighbours, then pending requests, groups and messages.
func (s *Seeder) Apply(ctx context.Context, p Preset) (*Summary, error) {
	sum := &Summary{}
	f := s.factory

	users := make([]*models.User, 0, p.Users)
	for i := 0; i < p.Users; i++ {
		u, err := f.CreateUser(ctx)
		if err != nil {
			return sum, fmt.Errorf("create user: %w", err)
		}
		users = append(users, u)
	}
	sum.Users = len(users)
	middleware.Logger.Info("seeded users", "count", sum.Users)

	linked := make(map[[2]int]bool)
	var friendships [][2]*models.User
	for i := range users {
		for k := 1; k <= p.FriendsPerUser; k++ {
			j := (i + k) % len(users)
			key := pairKey(i, j)
			if i == j || linked[key] {
				continue
			}
			if _, err := f.CreateFriendship(ctx, users[i], users[j]); err != nil {
				return sum, fmt.Errorf("create friendship: %w", err)
			}
			linked[key] = true
			friendships = append(friendships, [2]*models.User{users[i], users[j]})
		}
	}
	sum.Friendships = len(friendships)

	// random unlinked pairs; bounded so dense presets cannot spin
	for attempts := 0; sum.PendingRequests < p.PendingRequests && attempts < p.PendingRequests*20; attempts++ {
		i, j := f.intn(len(users)), f.intn(len(users))
		key := pairKey(i, j)
		if i == j || linked[key] {
			continue
		}
		if err := f.CreateFriendRequest(ctx, users[i], users[j]); err != nil {
			return sum, fmt.Errorf("create friend request: %w", err)
		}
		linked[key] = true
		sum.PendingRequests++
	}
	middleware.Logger.Info("seeded friendships",
		"friendships", sum.Friendships, "pending_requests", sum.PendingRequests)

	for _, pair := range friendships {
		for m := 0; m < p.MessagesPerFriendship; m++ {
			sender, receiver := pair[0], pair[1]
			if m%2 == 1 {
				sender, receiver = receiver, sender
			}
			if _, err := f.CreateMessage(ctx, sender, receiver); err != nil {
				return sum, fmt.Errorf("create message: %w", err)
			}
			sum.Messages++
		}
	}

	privateGroups := int(float64(p.Groups)*p.PrivateRatio + 0.5)
	for g := 0; g < p.Groups; g++ {
		ownerIdx := g % len(users)
		group, err := f.CreateGroup(ctx, users[ownerIdx], g < privateGroups)
		if err != nil {
			return sum, fmt.Errorf("create group: %w", err)
		}
		sum.Groups++
		sum.Memberships++

		members := []*models.User{users[ownerIdx]}
		for k := 1; k < p.MembersPerGroup && k < len(users); k++ {
			u := users[(ownerIdx+k)%len(users)]
			role := models.RoleMember
			if k == 1 {
				role = models.RoleModerator
			}
			if err := f.AddMember(ctx, group, u, role); err != nil {
				return sum, fmt.Errorf("add group member: %w", err)
			}
			members = append(members, u)
			sum.Memberships++
		}

		for m := 0; m < p.MessagesPerGroup; m++ {
			if _, err := f.CreateGroupMessage(ctx, group, members[f.intn(len(members))]); err != nil {
				return sum, fmt.Errorf("create group message: %w", err)
			}
			sum.GroupMessages++
		}
	}
	middleware.Logger.Info("seeded groups",
		"groups", sum.Groups, "memberships", sum.Memberships,
		"messages", sum.Messages, "group_messages", sum.GroupMessages)

	return sum, nil
}

func pairKey(i, j int) [2]int {
	if i > j {
		i, j = j, i
	}
	return [2]int{i, j}
}
