package testutil

import (
	"context"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/wayfarer-travel/wayfarer/internal/cache"
	"github.com/wayfarer-travel/wayfarer/internal/config"
	"github.com/wayfarer-travel/wayfarer/internal/domain/subscription"
	"github.com/wayfarer-travel/wayfarer/internal/logger"
	"github.com/wayfarer-travel/wayfarer/internal/types"
	"github.com/wayfarer-travel/wayfarer/internal/validator"
)

// Collaborators holds the instrumented backend fakes for testing
type Collaborators struct {
	Billing *InMemoryBillingClient
	Auth    *InMemoryAuthClient
}

// BaseServiceTestSuite provides common functionality for all service test suites
type BaseServiceTestSuite struct {
	suite.Suite
	ctx           context.Context
	collaborators Collaborators
	cache         cache.Cache
	recordStore   subscription.RecordStore
	actionLock    *subscription.ActionLock
	logger        *logger.Logger
	config        *config.Configuration
	now           time.Time
}

// SetupSuite is called once before running the tests in the suite
func (s *BaseServiceTestSuite) SetupSuite() {
	// Initialize validator
	validator.NewValidator()

	cfg := config.GetDefaultConfig()
	cfg.Logging.Level = types.LogLevelInfo
	cfg.Auth.Secret = TestSigningSecret

	var err error
	s.config = cfg
	s.logger, err = logger.NewLogger(cfg)
	if err != nil {
		s.T().Fatalf("failed to create logger: %v", err)
	}
}

// SetupTest is called before each test
func (s *BaseServiceTestSuite) SetupTest() {
	s.setupCollaborators()
	s.setupContext()
	s.now = time.Now().UTC()
}

// TearDownTest is called after each test
func (s *BaseServiceTestSuite) TearDownTest() {
	s.collaborators.Billing.Clear()
	s.collaborators.Auth.Clear()
	s.cache.Flush(s.ctx)
}

func (s *BaseServiceTestSuite) setupContext() {
	token := SignTestToken(DefaultUserID, types.UserRolePremium)
	s.ctx = SetupContext(DefaultUserID, token)
}

func (s *BaseServiceTestSuite) setupCollaborators() {
	s.collaborators = Collaborators{
		Billing: NewInMemoryBillingClient(),
		Auth:    NewInMemoryAuthClient(DefaultUserID, types.UserRolePremium),
	}
	s.cache = cache.NewInMemoryCache()
	s.recordStore = subscription.NewCachedRecordStore(s.cache, 5*time.Minute)
	s.actionLock = subscription.NewActionLock()
}

// GetContext returns the test context
func (s *BaseServiceTestSuite) GetContext() context.Context {
	return s.ctx
}

// GetConfig returns the test configuration
func (s *BaseServiceTestSuite) GetConfig() *config.Configuration {
	return s.config
}

// GetCollaborators returns the instrumented backend fakes
func (s *BaseServiceTestSuite) GetCollaborators() Collaborators {
	return s.collaborators
}

// GetCache returns the test cache
func (s *BaseServiceTestSuite) GetCache() cache.Cache {
	return s.cache
}

// GetRecordStore returns the test subscription record store
func (s *BaseServiceTestSuite) GetRecordStore() subscription.RecordStore {
	return s.recordStore
}

// GetActionLock returns the test action lock
func (s *BaseServiceTestSuite) GetActionLock() *subscription.ActionLock {
	return s.actionLock
}

// GetLogger returns the test logger
func (s *BaseServiceTestSuite) GetLogger() *logger.Logger {
	return s.logger
}

// GetNow returns the current test time
func (s *BaseServiceTestSuite) GetNow() time.Time {
	return s.now.UTC()
}
