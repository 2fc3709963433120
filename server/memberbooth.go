package server

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/existflow/memberbooth/internal/directory"
	"github.com/existflow/memberbooth/internal/logger"
	"github.com/existflow/memberbooth/internal/model"
)

// memberResponse mirrors the directory's member envelope
type memberResponse struct {
	Status string            `json:"status"`
	Data   *model.MemberData `json:"data"`
}

type uploadResponse struct {
	Status string              `json:"status"`
	Data   model.UploadedLabel `json:"data"`
}

type pinLoginRequest struct {
	MemberNumber int    `json:"member_number"`
	PinCode      string `json:"pin_code"`
}

// handleTag looks a member up by key tag
func (s *Server) handleTag(c echo.Context) error {
	tag := c.QueryParam("tagid")
	if tag == "" {
		return c.JSON(http.StatusBadRequest, errorBody("tagid required"))
	}
	m, err := s.store.MemberByTag(c.Request().Context(), tag)
	return s.memberReply(c, m, err)
}

// handleMember looks a member up by number
func (s *Server) handleMember(c echo.Context) error {
	number, err := strconv.Atoi(c.QueryParam("member_number"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("member_number must be an integer"))
	}
	m, err := s.store.MemberByNumber(c.Request().Context(), number)
	return s.memberReply(c, m, err)
}

// handlePinLogin authenticates a member by number and PIN
func (s *Server) handlePinLogin(c echo.Context) error {
	var req pinLoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("invalid request"))
	}
	m, err := s.store.MemberByNumberAndPIN(c.Request().Context(), req.MemberNumber, req.PinCode)
	if errors.Is(err, directory.ErrIncorrectPin) {
		logger.Warn("Incorrect pin code", logger.F("member", req.MemberNumber))
		return c.JSON(http.StatusBadRequest, errorBody("incorrect pin code"))
	}
	return s.memberReply(c, m, err)
}

func (s *Server) memberReply(c echo.Context, m model.Member, err error) error {
	if errors.Is(err, directory.ErrNoMatchingIdentity) {
		return c.JSON(http.StatusOK, memberResponse{Status: "ok"})
	}
	if err != nil {
		logger.Error("Member lookup failed", logger.Err(err))
		return c.JSON(http.StatusInternalServerError, errorBody("internal error"))
	}
	data := m.Data()
	return c.JSON(http.StatusOK, memberResponse{Status: "ok", Data: &data})
}

// handleLabel stores a label and returns its public URL
func (s *Server) handleLabel(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("invalid request"))
	}
	l, err := model.UnmarshalLabel(body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorBody(err.Error()))
	}

	up, err := s.store.UploadLabel(c.Request().Context(), l)
	if err != nil {
		logger.Error("Label upload failed", logger.Err(err))
		return c.JSON(http.StatusInternalServerError, errorBody("internal error"))
	}
	logger.Info("Label stored",
		logger.F("id", l.Base().ID),
		logger.F("kind", string(l.Kind())),
		logger.F("member", l.Base().MemberNumber))
	return c.JSON(http.StatusOK, uploadResponse{Status: "ok", Data: up})
}
