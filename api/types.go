// Package api defines the request and response types of the HTTP API.
package api

import (
	"time"

	"github.com/shopspring/decimal"
)

type ErrorResponse struct {
	Message   string    `json:"message"`
	RequestId string    `json:"requestId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type ValidationError struct {
	Field string `json:"field"`
	Issue string `json:"issue"`
}

type ValidationErrorResponse struct {
	Message          string            `json:"message"`
	RequestId        string            `json:"requestId,omitempty"`
	Timestamp        time.Time         `json:"timestamp"`
	ValidationErrors []ValidationError `json:"validationErrors"`
}

type SystemInfo struct {
	Version     string `json:"version"`
	Environment string `json:"environment"`
}

type HealthcheckResponse struct {
	Status     string     `json:"status"`
	SystemInfo SystemInfo `json:"systemInfo"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UserResponse struct {
	Id    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type Metadata struct {
	CurrentPage  int `json:"currentPage"`
	FirstPage    int `json:"firstPage"`
	LastPage     int `json:"lastPage"`
	PageSize     int `json:"pageSize"`
	TotalRecords int `json:"totalRecords"`
}

type Seat struct {
	Id        int             `json:"id"`
	Row       int             `json:"row"`
	Column    int             `json:"column"`
	Type      string          `json:"type"`
	Price     decimal.Decimal `json:"price"`
	Available bool            `json:"available"`
}

type SeatRow struct {
	Row   int    `json:"row"`
	Seats []Seat `json:"seats"`
}

type SeatMapResponse struct {
	ScreeningId int       `json:"screeningId"`
	MovieTitle  string    `json:"movieTitle"`
	TheaterName string    `json:"theaterName"`
	HallName    string    `json:"hallName"`
	StartTime   time.Time `json:"startTime"`
	SeatRows    []SeatRow `json:"seatRows"`
}

type SeatHoldRequest struct {
	SeatIdList []int `json:"seatIdList" validate:"required,min=1,max=8,unique,dive,gt=0"`
}

type CreateReservationRequest struct {
	SeatIdList []int `json:"seatIdList" validate:"required,min=1,max=8,unique,dive,gt=0"`
}

type ReservationResponse struct {
	ReservationGroupId int             `json:"reservationGroupId"`
	MerchantUid        string          `json:"merchantUid"`
	ExpectedAmount     decimal.Decimal `json:"expectedAmount"`
	Status             string          `json:"status"`
	SeatCount          int             `json:"seatCount"`
}

type PaymentVerificationRequest struct {
	ReservationGroupId int    `json:"reservationGroupId" validate:"required,gt=0"`
	MerchantUid        string `json:"merchantUid" validate:"required"`
	GatewayPaymentId   string `json:"gatewayPaymentId" validate:"required"`
}

type PaymentResponse struct {
	Id                 int             `json:"id"`
	ReservationGroupId int             `json:"reservationGroupId"`
	MerchantUid        string          `json:"merchantUid"`
	Status             string          `json:"status"`
	PaidAmount         decimal.Decimal `json:"paidAmount"`
	RefundAmount       decimal.Decimal `json:"refundAmount"`
	Provider           *string         `json:"provider,omitempty"`
	Method             *string         `json:"method,omitempty"`
	PaidAt             *time.Time      `json:"paidAt,omitempty"`
	CancelledAt        *time.Time      `json:"cancelledAt,omitempty"`
}

type CancelReservationRequest struct {
	Reason string `json:"reason" validate:"max=200"`
}

type ReservationSummary struct {
	Id          int             `json:"id"`
	MovieTitle  string          `json:"movieTitle"`
	TheaterName string          `json:"theaterName"`
	HallName    string          `json:"hallName"`
	StartTime   time.Time       `json:"startTime"`
	TotalPrice  decimal.Decimal `json:"totalPrice"`
	Status      string          `json:"status"`
	SeatCount   int             `json:"seatCount"`
	CreatedAt   time.Time       `json:"createdAt"`
}

type UserReservationsResponse struct {
	Reservations []ReservationSummary `json:"reservations"`
	Metadata     Metadata             `json:"metadata"`
}

type ReservationSeat struct {
	Row      int             `json:"row"`
	Column   int             `json:"column"`
	SeatType string          `json:"seatType"`
	Price    decimal.Decimal `json:"price"`
}

type ReservationDetailResponse struct {
	Id          int               `json:"id"`
	MovieTitle  string            `json:"movieTitle"`
	TheaterName string            `json:"theaterName"`
	HallName    string            `json:"hallName"`
	StartTime   time.Time         `json:"startTime"`
	TotalPrice  decimal.Decimal   `json:"totalPrice"`
	Status      string            `json:"status"`
	Seats       []ReservationSeat `json:"seats"`
	CreatedAt   time.Time         `json:"createdAt"`
}

type CancelScreeningRequest struct {
	Reason string `json:"reason" validate:"required,max=200"`
}

type SeatMaintenanceRequest struct {
	Status string `json:"status" validate:"required,oneof=FIXING AVAILABLE"`
}
