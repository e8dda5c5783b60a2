//go:build integration

package dedup_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"orgguard/internal/dedup"
	"orgguard/pkg/testutil/containers"
)

type RedisMarkerSuite struct {
	suite.Suite
	redis  *containers.RedisContainer
	marker *dedup.RedisMarker
}

func TestRedisMarkerSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisMarkerSuite))
}

func (s *RedisMarkerSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())

	var err error
	s.marker, err = dedup.NewRedisMarker(s.redis.Client, time.Hour)
	s.Require().NoError(err)
}

func (s *RedisMarkerSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisMarkerSuite) TestMarkSeen() {
	ctx := context.Background()

	s.Run("first delivery", func() {
		first, err := s.marker.MarkSeen(ctx, "evt-1")
		s.NoError(err)
		s.True(first)
	})

	s.Run("redelivery of the same event", func() {
		first, err := s.marker.MarkSeen(ctx, "evt-1")
		s.NoError(err)
		s.False(first)
	})

	s.Run("distinct events are independent", func() {
		first, err := s.marker.MarkSeen(ctx, "evt-2")
		s.NoError(err)
		s.True(first)
	})
}

func (s *RedisMarkerSuite) TestNewRedisMarkerRequiresClient() {
	_, err := dedup.NewRedisMarker(nil, time.Hour)
	s.Error(err)
}
