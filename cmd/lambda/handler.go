package main

import (
	"context"
	"fmt"

	"wagerbank/service"

	log "github.com/sirupsen/logrus"
)

// Request is the command routed to the function after authentication and argument parsing
type Request struct {
	CommunityID string            `json:"community_id"`
	UserID      string            `json:"user_id"`
	Operation   string            `json:"operation"`
	Arguments   service.Arguments `json:"arguments"`
}

// Response carries the text shown to the user
type Response struct {
	Content string `json:"content"`
}

type handler struct {
	bank service.BankService
}

// Handle runs one operation. Only storage faults are returned as errors.
func (h *handler) Handle(ctx context.Context, req Request) (Response, error) {
	if req.CommunityID == "" {
		return Response{}, fmt.Errorf("failed to handle request: community_id is missing")
	}

	content, err := h.bank.Operate(ctx, req.CommunityID, req.UserID, service.Operation(req.Operation), req.Arguments)
	if err != nil {
		log.WithFields(log.Fields{
			"community": req.CommunityID,
			"operation": req.Operation,
			"error":     err,
		}).Error("Operation failed")
		return Response{}, err
	}
	return Response{Content: content}, nil
}
