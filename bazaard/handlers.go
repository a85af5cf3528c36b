package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/monkeybrothers/bazaar/bazaarapi"
	"github.com/monkeybrothers/bazaar/core"
)

// handleRequest dispatches one raw JSON request and returns the response
// value to encode. It never returns nil.
func (s *Server) handleRequest(data []byte) any {
	var base struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &base); err != nil {
		log.Printf("ERROR: Failed to decode base request: %v", err)
		return failure("error", fmt.Errorf("failed to decode request: %w", err))
	}

	log.Printf("INFO: Received request type: %s", base.Type)

	switch base.Type {
	case bazaarapi.TypePing:
		return bazaarapi.PongResponse{
			Type:      "pong",
			Message:   "Bazaar server is healthy",
			Timestamp: time.Now().Unix(),
		}
	case bazaarapi.TypeList:
		return s.handleList(data)
	case bazaarapi.TypeDelist:
		return s.handleDelist(data)
	case bazaarapi.TypePlaceBid:
		return s.handlePlaceBid(data)
	case bazaarapi.TypeBuyNow:
		return s.handleBuyNow(data)
	case bazaarapi.TypeFinalize:
		return s.handleFinalize(data)
	case bazaarapi.TypeWithdrawFees:
		return s.handleWithdrawFees(data)
	case bazaarapi.TypeGetListing:
		return s.handleGetListing(data)
	case bazaarapi.TypeGetMetrics:
		return s.handleGetMetrics()
	case bazaarapi.TypeApproveFunds:
		return s.handleApproveFunds(data)
	case bazaarapi.TypeApproveMarket:
		return s.handleApproveMarket(data)
	default:
		return failure(base.Type, fmt.Errorf("unknown request type: %s", base.Type))
	}
}

func (s *Server) handleList(data []byte) any {
	var req bazaarapi.ListRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return failure(req.Type, err)
	}
	if err := bazaarapi.RequireCaller(req.Caller); err != nil {
		return failure(req.Type, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	listing, err := s.engine.List(req.TokenID, req.BuyNowPrice, req.StartingBid, core.Account(req.Caller))
	if err != nil {
		return failure(req.Type, err)
	}
	s.persist()

	return bazaarapi.ListingResponse{
		Response: success(req.Type),
		Listing:  listing,
	}
}

func (s *Server) handleDelist(data []byte) any {
	var req bazaarapi.DelistRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return failure(req.Type, err)
	}
	if err := bazaarapi.RequireCaller(req.Caller); err != nil {
		return failure(req.Type, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.engine.Delist(req.TokenID, core.Account(req.Caller)); err != nil {
		return failure(req.Type, err)
	}
	s.persist()
	return success(req.Type)
}

func (s *Server) handlePlaceBid(data []byte) any {
	var req bazaarapi.PlaceBidRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return failure(req.Type, err)
	}
	if err := bazaarapi.RequireCaller(req.Caller); err != nil {
		return failure(req.Type, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.engine.PlaceBid(req.TokenID, req.Amount, core.Account(req.Caller)); err != nil {
		return failure(req.Type, err)
	}
	s.persist()
	return success(req.Type)
}

func (s *Server) handleBuyNow(data []byte) any {
	var req bazaarapi.BuyNowRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return failure(req.Type, err)
	}
	if err := bazaarapi.RequireCaller(req.Caller); err != nil {
		return failure(req.Type, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.engine.BuyNow(req.TokenID, core.Account(req.Caller)); err != nil {
		return failure(req.Type, err)
	}
	s.persist()
	return success(req.Type)
}

func (s *Server) handleFinalize(data []byte) any {
	var req bazaarapi.FinalizeRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return failure(req.Type, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.engine.Finalize(req.TokenID, core.Account(req.Caller)); err != nil {
		return failure(req.Type, err)
	}
	s.persist()
	return success(req.Type)
}

func (s *Server) handleWithdrawFees(data []byte) any {
	var req bazaarapi.WithdrawFeesRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return failure(req.Type, err)
	}
	if err := bazaarapi.RequireCaller(req.Caller); err != nil {
		return failure(req.Type, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	amount, err := s.engine.WithdrawFees(core.Account(req.Caller))
	if err != nil {
		return failure(req.Type, err)
	}
	s.persist()
	return bazaarapi.WithdrawFeesResponse{
		Response: success(req.Type),
		Amount:   amount,
	}
}

func (s *Server) handleGetListing(data []byte) any {
	var req bazaarapi.GetListingRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return failure(req.Type, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	listing, err := s.engine.ListingDetails(req.TokenID)
	if err != nil {
		return failure(req.Type, err)
	}
	return bazaarapi.ListingResponse{
		Response: success(req.Type),
		Listing:  listing,
	}
}

func (s *Server) handleGetMetrics() any {
	s.mu.Lock()
	defer s.mu.Unlock()
	metrics := s.engine.MarketMetricsView()
	return bazaarapi.MetricsResponse{
		Response: success(bazaarapi.TypeGetMetrics),
		Metrics:  &metrics,
	}
}

func (s *Server) handleApproveFunds(data []byte) any {
	var req bazaarapi.ApproveFundsRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return failure(req.Type, err)
	}
	if err := bazaarapi.RequireCaller(req.Caller); err != nil {
		return failure(req.Type, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ledger.Approve(core.Account(req.Caller), s.account, req.Amount); err != nil {
		return failure(req.Type, err)
	}
	s.persist()
	return success(req.Type)
}

func (s *Server) handleApproveMarket(data []byte) any {
	var req bazaarapi.ApproveMarketRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return failure(req.Type, err)
	}
	if err := bazaarapi.RequireCaller(req.Caller); err != nil {
		return failure(req.Type, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.registry.SetApprovalForAll(core.Account(req.Caller), s.account, req.Approved)
	s.persist()
	return success(req.Type)
}

func success(reqType string) bazaarapi.Response {
	return bazaarapi.Response{
		Type:    reqType + "_response",
		Success: true,
	}
}

func failure(reqType string, err error) bazaarapi.Response {
	resp := bazaarapi.Response{
		Type:    reqType + "_response",
		Message: err.Error(),
	}
	var marketErr *core.MarketError
	if errors.As(err, &marketErr) {
		resp.ErrorKind = marketErr.Kind.String()
	}
	log.Printf("INFO: Request %s rejected: %v", reqType, err)
	return resp
}
