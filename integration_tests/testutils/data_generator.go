package testutils

import (
	"github.com/brianvoe/gofakeit/v7"

	scheduledb "github.com/polp-online/schedule-service/app/modules/schedule/infrastructure/repositories"
)

// TestDataGenerator produces realistic event and user rows for
// integration tests.
type TestDataGenerator struct {
	faker *gofakeit.Faker
}

// NewTestDataGenerator creates a generator with a fixed seed so test
// data is reproducible across runs.
func NewTestDataGenerator(seed uint64) *TestDataGenerator {
	return &TestDataGenerator{
		faker: gofakeit.New(seed),
	}
}

// GenerateEvent builds an event with plausible room and zone values.
func (g *TestDataGenerator) GenerateEvent() *scheduledb.Event {
	name := g.faker.BookTitle()
	return &scheduledb.Event{
		Name:        name,
		Description: g.faker.Sentence(8),
		Room:        g.faker.DigitN(3),
		Zone:        g.faker.RandomString([]string{"A", "B", "C"}),
		Floor:       g.faker.RandomString([]string{"0", "1", "2"}),
	}
}

// GenerateUser builds a user with a unique-looking email.
func (g *TestDataGenerator) GenerateUser() *scheduledb.User {
	name := g.faker.Name()
	return &scheduledb.User{
		Name:    &name,
		Email:   g.faker.Email(),
		Section: int32(g.faker.Number(1, 5)),
	}
}
