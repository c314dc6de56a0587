package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

// IntegrationTestSuite provides base functionality for tests that run the
// benchmark harness end to end
type IntegrationTestSuite struct {
	suite.Suite
	ctx       context.Context
	cancel    context.CancelFunc
	tempDir   string
	logger    *zap.Logger
	startTime time.Time
}

// SetupSuite runs before all tests in the suite
func (s *IntegrationTestSuite) SetupSuite() {
	s.ctx, s.cancel = context.WithTimeout(context.Background(), 5*time.Minute)
	s.startTime = time.Now()

	tempDir, err := os.MkdirTemp("", "poolbench-test-*")
	require.NoError(s.T(), err)
	s.tempDir = tempDir
	s.logger = TestLogger(s.T())

	s.T().Logf("Integration test suite started in %s", s.tempDir)
}

// TearDownSuite runs after all tests in the suite
func (s *IntegrationTestSuite) TearDownSuite() {
	s.cancel()

	if s.tempDir != "" {
		os.RemoveAll(s.tempDir)
	}

	s.T().Logf("Integration test suite completed in %v", time.Since(s.startTime))
}

// Context returns the test context
func (s *IntegrationTestSuite) Context() context.Context {
	return s.ctx
}

// TempDir returns the temporary directory path
func (s *IntegrationTestSuite) TempDir() string {
	return s.tempDir
}

// Logger returns a logger writing to the suite's test output
func (s *IntegrationTestSuite) Logger() *zap.Logger {
	return s.logger
}

// CreateTempFile creates a temporary file with content
func (s *IntegrationTestSuite) CreateTempFile(name string, content []byte) string {
	path := filepath.Join(s.tempDir, name)
	err := os.WriteFile(path, content, 0644)
	require.NoError(s.T(), err)
	return path
}

// IntegrationTest marks a test as an integration test
func IntegrationTest(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
}
