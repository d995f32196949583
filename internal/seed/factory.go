// Package seed creates demo data for development databases: users,
// friendships, pending requests, groups and conversations.
package seed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"chatapp/internal/models"
	"chatapp/internal/repository"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Password is the plaintext password of every seeded user.
const Password = "password123"

// Options tunes a Factory.
type Options struct {
	// Seed makes generated content reproducible. Zero picks a time-based seed.
	Seed int64
	// BcryptCost defaults to bcrypt.DefaultCost.
	BcryptCost int
}

// Factory builds domain entities and persists them through the repositories.
type Factory struct {
	faker    *gofakeit.Faker
	hash     string
	seq      int
	users    repository.UserRepository
	friends  repository.FriendRepository
	groups   repository.GroupRepository
	messages repository.MessageRepository
	groupMsg repository.GroupMessageRepository
}

// NewFactory creates a Factory bound to db.
func NewFactory(db *gorm.DB, opts Options) (*Factory, error) {
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	cost := opts.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}

	// one hash shared by every user keeps large presets fast
	hash, err := bcrypt.GenerateFromPassword([]byte(Password), cost)
	if err != nil {
		return nil, fmt.Errorf("hash seed password: %w", err)
	}

	return &Factory{
		faker:    gofakeit.New(seed),
		hash:     string(hash),
		users:    repository.NewUserRepository(db),
		friends:  repository.NewFriendRepository(db),
		groups:   repository.NewGroupRepository(db),
		messages: repository.NewMessageRepository(db),
		groupMsg: repository.NewGroupMessageRepository(db),
	}, nil
}

// CreateUser persists a user with generated profile fields. Optional
// overrides run before the insert.
func (f *Factory) CreateUser(ctx context.Context, overrides ...func(*models.User)) (*models.User, error) {
	f.seq++
	first := f.faker.FirstName()
	last := f.faker.LastName()
	username := fmt.Sprintf("%s_%s%d", strings.ToLower(first), strings.ToLower(last), f.seq)
	username = strings.NewReplacer(" ", "", "'", "").Replace(username)

	user := &models.User{
		Name:     first + " " + last,
		Username: username,
		Email:    username + "@example.com",
		Password: f.hash,
		Status:   f.faker.RandomString([]string{"Available", "Busy", "At work", "On holiday", ""}),
		AboutMe:  f.faker.Sentence(12),
	}
	for _, override := range overrides {
		override(user)
	}

	if err := f.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// CreateFriendship sends a request from a to b and accepts it.
func (f *Factory) CreateFriendship(ctx context.Context, a, b *models.User) (*models.Friend, error) {
	if err := f.CreateFriendRequest(ctx, a, b); err != nil {
		return nil, err
	}
	return f.friends.AcceptRequest(ctx, a.ID, b.ID)
}

// CreateFriendRequest leaves a pending request from sender to receiver.
func (f *Factory) CreateFriendRequest(ctx context.Context, sender, receiver *models.User) error {
	return f.friends.CreateRequest(ctx, &models.FriendRequest{SenderID: sender.ID, ReceiverID: receiver.ID})
}

// CreateGroup persists a group owned by owner, who becomes its admin.
func (f *Factory) CreateGroup(ctx context.Context, owner *models.User, private bool) (*models.Group, error) {
	group := &models.Group{
		Name:        strings.TrimSpace(f.faker.Adjective() + " " + f.faker.NounCollectivePeople()),
		Description: f.faker.Sentence(8),
		IsPrivate:   private,
	}
	if len(group.Name) < 3 {
		group.Name = "Group " + group.Name
	}
	if err := f.groups.CreateWithOwner(ctx, group, owner.ID); err != nil {
		return nil, err
	}
	return group, nil
}

// AddMember adds user to group with role.
func (f *Factory) AddMember(ctx context.Context, group *models.Group, user *models.User, role string) error {
	_, err := f.groups.AddMember(ctx, group.ID, user.ID, role)
	return err
}

// CreateMessage persists a direct message from sender to receiver.
func (f *Factory) CreateMessage(ctx context.Context, sender, receiver *models.User) (*models.Message, error) {
	return f.messages.Create(ctx, &models.Message{
		SenderID:   sender.ID,
		ReceiverID: receiver.ID,
		Message:    f.faker.Sentence(f.faker.Number(3, 14)),
	})
}

// CreateGroupMessage persists a message in group from sender.
func (f *Factory) CreateGroupMessage(ctx context.Context, group *models.Group, sender *models.User) (*models.GroupMessage, error) {
	return f.groupMsg.Create(ctx, &models.GroupMessage{
		GroupID:  group.ID,
		SenderID: sender.ID,
		Message:  f.faker.Sentence(f.faker.Number(3, 14)),
	})
}

// intn returns a pseudo-random int in [0, n).
func (f *Factory) intn(n int) int {
	if n <= 1 {
		return 0
	}
	return f.faker.Number(0, n-1)
}
