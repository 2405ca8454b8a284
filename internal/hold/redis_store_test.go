package hold

import (
	"testing"
	"time"

	"github.com/megacine/reservation-system/internal/domain"
	"github.com/megacine/reservation-system/internal/mocks"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

const (
	testUserId  = 7
	testOwner   = "7"
	testHoldTTL = 5 * time.Minute
)

type RedisSeatHoldStoreTestSuite struct {
	suite.Suite
	redisClient *mocks.MockRedisClient
	store       *RedisSeatHoldStore
}

func (s *RedisSeatHoldStoreTestSuite) SetupTest() {
	s.redisClient = new(mocks.MockRedisClient)
	s.store = NewRedisSeatHoldStore(s.redisClient)
}

func TestRedisSeatHoldStoreSuite(t *testing.T) {
	suite.Run(t, new(RedisSeatHoldStoreTestSuite))
}

func (s *RedisSeatHoldStoreTestSuite) TestAcquire() {
	tests := []struct {
		name       string
		seatIds    []int
		setupMocks func()
		wantErr    error
	}{
		{
			name:    "should acquire all seats when none are held",
			seatIds: []int{3, 1, 2},
			setupMocks: func() {
				for _, key := range []string{"seat_hold:1", "seat_hold:2", "seat_hold:3"} {
					s.redisClient.On("Get", mock.Anything, key).
						Return(redis.NewStringResult("", redis.Nil)).Once()
					s.redisClient.On("SetNX", mock.Anything, key, testOwner, testHoldTTL).
						Return(redis.NewBoolResult(true, nil)).Once()
				}
			},
		},
		{
			name:    "should skip seats already held by the same user",
			seatIds: []int{1, 2},
			setupMocks: func() {
				s.redisClient.On("Get", mock.Anything, "seat_hold:1").
					Return(redis.NewStringResult(testOwner, nil)).Once()
				s.redisClient.On("Get", mock.Anything, "seat_hold:2").
					Return(redis.NewStringResult("", redis.Nil)).Once()
				s.redisClient.On("SetNX", mock.Anything, "seat_hold:2", testOwner, testHoldTTL).
					Return(redis.NewBoolResult(true, nil)).Once()
			},
		},
		{
			name:    "should roll back acquired seats when a later seat is held by another user",
			seatIds: []int{2, 1},
			setupMocks: func() {
				s.redisClient.On("Get", mock.Anything, "seat_hold:1").
					Return(redis.NewStringResult("", redis.Nil)).Once()
				s.redisClient.On("SetNX", mock.Anything, "seat_hold:1", testOwner, testHoldTTL).
					Return(redis.NewBoolResult(true, nil)).Once()
				s.redisClient.On("Get", mock.Anything, "seat_hold:2").
					Return(redis.NewStringResult("", redis.Nil)).Once()
				s.redisClient.On("SetNX", mock.Anything, "seat_hold:2", testOwner, testHoldTTL).
					Return(redis.NewBoolResult(false, nil)).Once()
				s.redisClient.On("EvalSha", mock.Anything, mock.Anything, []string{"seat_hold:1"}, testOwner).
					Return(redis.NewCmdResult(int64(1), nil)).Once()
			},
			wantErr: domain.ErrSeatAlreadyHeld,
		},
		{
			name:    "should surface redis errors from the ownership lookup",
			seatIds: []int{1},
			setupMocks: func() {
				s.redisClient.On("Get", mock.Anything, "seat_hold:1").
					Return(redis.NewStringResult("", mocks.MockRedisError{Msg: "connection lost"})).Once()
			},
			wantErr: mocks.MockRedisError{Msg: "connection lost"},
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.SetupTest()
			tt.setupMocks()

			err := s.store.Acquire(s.T().Context(), tt.seatIds, testUserId, testHoldTTL)

			if tt.wantErr != nil {
				s.ErrorIs(err, tt.wantErr)
			} else {
				s.NoError(err)
			}
			s.redisClient.AssertExpectations(s.T())
		})
	}
}

func (s *RedisSeatHoldStoreTestSuite) TestRelease() {
	s.redisClient.On("EvalSha", mock.Anything, mock.Anything, []string{"seat_hold:1"}, testOwner).
		Return(redis.NewCmdResult(int64(1), nil)).Once()
	s.redisClient.On("EvalSha", mock.Anything, mock.Anything, []string{"seat_hold:2"}, testOwner).
		Return(redis.NewCmdResult(int64(0), nil)).Once()

	err := s.store.Release(s.T().Context(), []int{1, 2}, testUserId)

	s.NoError(err)
	s.redisClient.AssertExpectations(s.T())
}

func (s *RedisSeatHoldStoreTestSuite) TestOwners() {
	tests := []struct {
		name       string
		seatIds    []int
		setupMocks func()
		want       map[int]int
		wantErr    bool
	}{
		{
			name:    "should map held seats to owners and skip free seats",
			seatIds: []int{1, 2, 3},
			setupMocks: func() {
				s.redisClient.On("MGet", mock.Anything, []string{"seat_hold:1", "seat_hold:2", "seat_hold:3"}).
					Return(redis.NewSliceResult([]interface{}{"7", nil, "12"}, nil)).Once()
			},
			want: map[int]int{1: 7, 3: 12},
		},
		{
			name:    "should return empty map without touching redis when no seats given",
			seatIds: []int{},
			want:    map[int]int{},
		},
		{
			name:    "should fail when a hold value is not a user id",
			seatIds: []int{1},
			setupMocks: func() {
				s.redisClient.On("MGet", mock.Anything, []string{"seat_hold:1"}).
					Return(redis.NewSliceResult([]interface{}{"not-a-number"}, nil)).Once()
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.SetupTest()
			if tt.setupMocks != nil {
				tt.setupMocks()
			}

			got, err := s.store.Owners(s.T().Context(), tt.seatIds)

			if tt.wantErr {
				s.Error(err)
			} else {
				s.NoError(err)
				s.Equal(tt.want, got)
			}
			s.redisClient.AssertExpectations(s.T())
		})
	}
}
