package srvreg

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/campuschain/room-reservation/reservation"
)

var defaultHeaders = map[string]string{"Content-Type": "application/json"}

// serviceErrorResponse maps a domain error to an HTTP response.
func serviceErrorResponse(svcErr *reservation.ServiceError) (*Response, error) {
	switch svcErr.Code {
	case reservation.ErrValidation:
		return &Response{
			StatusCode: http.StatusBadRequest,
			Headers:    defaultHeaders,
			Body:       fmt.Sprintf(`{"error":"%s"}`, svcErr.Message),
		}, fmt.Errorf("validation error: %s", svcErr.Message)
	case reservation.ErrConflict:
		return &Response{
			StatusCode: http.StatusConflict,
			Headers:    defaultHeaders,
			Body:       fmt.Sprintf(`{"error":"%s"}`, svcErr.Message),
		}, fmt.Errorf("conflict: %s", svcErr.Message)
	case reservation.ErrUnauthorized:
		return &Response{
			StatusCode: http.StatusForbidden,
			Headers:    defaultHeaders,
			Body:       fmt.Sprintf(`{"error":"%s"}`, svcErr.Message),
		}, fmt.Errorf("unauthorized: %s", svcErr.Message)
	case reservation.ErrNotFound:
		return &Response{
			StatusCode: http.StatusNotFound,
			Headers:    defaultHeaders,
			Body:       fmt.Sprintf(`{"error":"%s"}`, svcErr.Message),
		}, fmt.Errorf("not found: %s", svcErr.Message)
	default:
		return &Response{
			StatusCode: http.StatusInternalServerError,
			Headers:    defaultHeaders,
			Body:       `{"error":"Internal server error"}`,
		}, nil
	}
}

type registerUserHandlerBody struct {
	UserID       string `json:"user_id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	LocationCode string `json:"location_code"`
}

func (sr *ServiceRegistry) RegisterUserHandler(req *Request) (*Response, error) {
	var body registerUserHandlerBody
	err := json.Unmarshal([]byte(req.Body), &body)
	if err != nil {
		sr.logger.Info("Failed to parse body", "error", err.Error())
		return &Response{
			StatusCode: http.StatusUnprocessableEntity,
			Headers:    defaultHeaders,
			Body:       fmt.Sprintf(`{"error":"Invalid body format: %s"}`, err.Error()),
		}, fmt.Errorf("invalid body format")
	}

	if body.UserID == "" {
		return &Response{
			StatusCode: http.StatusBadRequest,
			Headers:    defaultHeaders,
			Body:       `{"error":"user_id is required"}`,
		}, err
	}

	user, svcErr := sr.service.RegisterUser(body.UserID, body.Name, body.Email, reservation.Role(body.Role), body.LocationCode)
	if svcErr != nil {
		return serviceErrorResponse(svcErr)
	}

	return &Response{
		StatusCode: http.StatusCreated,
		Headers:    defaultHeaders,
		Body:       fmt.Sprintf(`{"message":"User registered","user_id":"%s","role":"%s"}`, user.ID, user.Role),
	}, nil
}

type makeReservationHandlerBody struct {
	RoomNumber      string `json:"room_number"`
	LocationCode    string `json:"location_code"`
	UserID          string `json:"user_id"`
	StartTime       string `json:"start_time"`
	DurationMinutes int    `json:"duration_minutes"`
}

func (sr *ServiceRegistry) MakeReservationHandler(req *Request) (*Response, error) {
	var body makeReservationHandlerBody
	err := json.Unmarshal([]byte(req.Body), &body)
	if err != nil {
		sr.logger.Info("Failed to parse body", "error", err.Error())
		return &Response{
			StatusCode: http.StatusUnprocessableEntity,
			Headers:    defaultHeaders,
			Body:       fmt.Sprintf(`{"error":"Invalid body format: %s"}`, err.Error()),
		}, fmt.Errorf("invalid body format")
	}

	if body.UserID == "" {
		return &Response{
			StatusCode: http.StatusBadRequest,
			Headers:    defaultHeaders,
			Body:       `{"error":"user_id is required"}`,
		}, err
	}
	if body.RoomNumber == "" || body.LocationCode == "" {
		return &Response{
			StatusCode: http.StatusBadRequest,
			Headers:    defaultHeaders,
			Body:       `{"error":"room_number and location_code are required"}`,
		}, err
	}

	res, svcErr := sr.service.MakeReservation(body.RoomNumber, body.LocationCode, body.UserID, body.StartTime, body.DurationMinutes)
	if svcErr != nil {
		return serviceErrorResponse(svcErr)
	}

	return &Response{
		StatusCode: http.StatusCreated,
		Headers:    defaultHeaders,
		Body: fmt.Sprintf(
			`{"message":"Reservation submitted","reservation_id":"%s","room":"%s","status":"%s"}`,
			res.ID, res.RoomNumber, res.Status,
		),
	}, nil
}

type cancelReservationHandlerBody struct {
	UserID string `json:"user_id"`
}

func (sr *ServiceRegistry) CancelReservationHandler(req *Request) (*Response, error) {
	pathParts := strings.Split(req.Path, "/")
	if len(pathParts) != 4 {
		return &Response{
			StatusCode: http.StatusBadRequest,
			Headers:    defaultHeaders,
			Body:       `{"error":"Invalid path format"}`,
		}, fmt.Errorf("invalid path format")
	}
	reservationID := pathParts[2]

	var body cancelReservationHandlerBody
	err := json.Unmarshal([]byte(req.Body), &body)
	if err != nil {
		sr.logger.Info("Failed to parse body", "error", err.Error())
		return &Response{
			StatusCode: http.StatusUnprocessableEntity,
			Headers:    defaultHeaders,
			Body:       fmt.Sprintf(`{"error":"Invalid body format: %s"}`, err.Error()),
		}, fmt.Errorf("invalid body format")
	}
	if body.UserID == "" {
		return &Response{
			StatusCode: http.StatusBadRequest,
			Headers:    defaultHeaders,
			Body:       `{"error":"user_id is required"}`,
		}, err
	}

	res, svcErr := sr.service.CancelReservation(reservationID, body.UserID)
	if svcErr != nil {
		return serviceErrorResponse(svcErr)
	}

	return &Response{
		StatusCode: http.StatusAccepted,
		Headers:    defaultHeaders,
		Body: fmt.Sprintf(
			`{"message":"Reservation cancelled","reservation_id":"%s","cancelled_by":"%s"}`,
			res.ID, res.CancelledBy,
		),
	}, nil
}

func (sr *ServiceRegistry) ListReservationsHandler(req *Request) (*Response, error) {
	reservations := sr.service.AllReservations()

	listJSON, err := json.Marshal(reservations)
	if err != nil {
		return &Response{
			StatusCode: http.StatusInternalServerError,
			Headers:    defaultHeaders,
			Body:       `{"error":"Failed to encode reservations"}`,
		}, nil
	}

	return &Response{
		StatusCode: http.StatusOK,
		Headers:    defaultHeaders,
		Body:       fmt.Sprintf(`{"count":%d,"reservations":%s}`, len(reservations), string(listJSON)),
	}, nil
}

func (sr *ServiceRegistry) UserReservationsHandler(req *Request) (*Response, error) {
	pathParts := strings.Split(req.Path, "/")
	if len(pathParts) != 4 {
		return &Response{
			StatusCode: http.StatusBadRequest,
			Headers:    defaultHeaders,
			Body:       `{"error":"Invalid path format"}`,
		}, fmt.Errorf("invalid path format")
	}
	userID := pathParts[3]

	reservations := sr.service.ReservationsByUser(userID)

	listJSON, err := json.Marshal(reservations)
	if err != nil {
		return &Response{
			StatusCode: http.StatusInternalServerError,
			Headers:    defaultHeaders,
			Body:       `{"error":"Failed to encode reservations"}`,
		}, nil
	}

	return &Response{
		StatusCode: http.StatusOK,
		Headers:    defaultHeaders,
		Body:       fmt.Sprintf(`{"user_id":"%s","count":%d,"reservations":%s}`, userID, len(reservations), string(listJSON)),
	}, nil
}

type availableRoomsHandlerBody struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

func (sr *ServiceRegistry) AvailableRoomsHandler(req *Request) (*Response, error) {
	var body availableRoomsHandlerBody
	err := json.Unmarshal([]byte(req.Body), &body)
	if err != nil {
		sr.logger.Info("Failed to parse body", "error", err.Error())
		return &Response{
			StatusCode: http.StatusUnprocessableEntity,
			Headers:    defaultHeaders,
			Body:       fmt.Sprintf(`{"error":"Invalid body format: %s"}`, err.Error()),
		}, fmt.Errorf("invalid body format")
	}

	rooms, svcErr := sr.service.AvailableRooms(body.StartTime, body.EndTime)
	if svcErr != nil {
		return serviceErrorResponse(svcErr)
	}

	roomsJSON, err := json.Marshal(rooms)
	if err != nil {
		return &Response{
			StatusCode: http.StatusInternalServerError,
			Headers:    defaultHeaders,
			Body:       `{"error":"Failed to encode rooms"}`,
		}, nil
	}

	return &Response{
		StatusCode: http.StatusOK,
		Headers:    defaultHeaders,
		Body:       fmt.Sprintf(`{"count":%d,"rooms":%s}`, len(rooms), string(roomsJSON)),
	}, nil
}

func (sr *ServiceRegistry) MineHandler(req *Request) (*Response, error) {
	block, svcErr := sr.service.MineNow()
	if svcErr != nil {
		return serviceErrorResponse(svcErr)
	}
	if block == nil {
		return &Response{
			StatusCode: http.StatusOK,
			Headers:    defaultHeaders,
			Body:       `{"message":"No pending transactions to mine"}`,
		}, nil
	}

	return &Response{
		StatusCode: http.StatusCreated,
		Headers:    defaultHeaders,
		Body: fmt.Sprintf(
			`{"message":"Block mined","index":%d,"hash":"%s","transactions":%d}`,
			block.Index, block.Hash, len(block.Transactions),
		),
	}, nil
}

func (sr *ServiceRegistry) ChainHandler(req *Request) (*Response, error) {
	chain := sr.service.ChainData()

	chainJSON, err := json.Marshal(chain)
	if err != nil {
		return &Response{
			StatusCode: http.StatusInternalServerError,
			Headers:    defaultHeaders,
			Body:       `{"error":"Failed to encode chain"}`,
		}, nil
	}

	return &Response{
		StatusCode: http.StatusOK,
		Headers:    defaultHeaders,
		Body:       fmt.Sprintf(`{"length":%d,"chain":%s}`, len(chain), string(chainJSON)),
	}, nil
}

func (sr *ServiceRegistry) StatsHandler(req *Request) (*Response, error) {
	stats := sr.service.Stats()

	statsJSON, err := json.Marshal(stats)
	if err != nil {
		return &Response{
			StatusCode: http.StatusInternalServerError,
			Headers:    defaultHeaders,
			Body:       `{"error":"Failed to encode stats"}`,
		}, nil
	}

	return &Response{
		StatusCode: http.StatusOK,
		Headers:    defaultHeaders,
		Body:       string(statsJSON),
	}, nil
}

func (sr *ServiceRegistry) ValidateHandler(req *Request) (*Response, error) {
	svcErr := sr.service.ValidateChain()
	if svcErr != nil {
		return &Response{
			StatusCode: http.StatusConflict,
			Headers:    defaultHeaders,
			Body:       fmt.Sprintf(`{"valid":false,"error":"%s"}`, svcErr.Message),
		}, fmt.Errorf("chain integrity violation: %s", svcErr.Message)
	}

	return &Response{
		StatusCode: http.StatusOK,
		Headers:    defaultHeaders,
		Body:       `{"valid":true}`,
	}, nil
}

func (sr *ServiceRegistry) NetworkHandler(req *Request) (*Response, error) {
	info := sr.service.NetworkInfo()

	infoJSON, err := json.Marshal(info)
	if err != nil {
		return &Response{
			StatusCode: http.StatusInternalServerError,
			Headers:    defaultHeaders,
			Body:       `{"error":"Failed to encode network info"}`,
		}, nil
	}

	return &Response{
		StatusCode: http.StatusOK,
		Headers:    defaultHeaders,
		Body:       string(infoJSON),
	}, nil
}
