package sandbox

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/sunshine-protocol/sunshine-go/pkg/model"
	"github.com/sunshine-protocol/sunshine-go/pkg/rpc"
)

// Runtime identity reported by state_runtimeVersion.
const (
	SpecName    = "sunshine-dev"
	SpecVersion = 1
)

type wireRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	ID      *uint64           `json:"id"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
}

type wireResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      *uint64         `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpc.Error      `json:"error,omitempty"`
}

type wireNotification struct {
	JSONRPC string           `json:"jsonrpc"`
	Method  string           `json:"method"`
	Params  notificationBody `json:"params"`
}

type notificationBody struct {
	Subscription string      `json:"subscription"`
	Result       interface{} `json:"result"`
}

// Node serves the sandbox ledger over websocket JSON-RPC.
type Node struct {
	ledger   *Ledger
	server   *http.Server
	listener net.Listener
	upgrader websocket.Upgrader

	nextSubID atomic.Uint64

	mu       sync.Mutex
	sessions map[*session]struct{}
}

type session struct {
	node *Node
	ws   *websocket.Conn

	writeMu sync.Mutex

	mu       sync.Mutex
	headSubs map[string]struct{}
}

// Start launches a node for the given ledger on an ephemeral localhost port.
func Start(ledger *Ledger) (*Node, error) {
	return StartAddr(ledger, "127.0.0.1:0")
}

// StartAddr launches a node on a fixed listen address.
func StartAddr(ledger *Ledger, addr string) (*Node, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen for sandbox node: %w", err)
	}

	n := &Node{
		ledger:   ledger,
		listener: listener,
		sessions: make(map[*session]struct{}),
	}
	n.server = &http.Server{Handler: http.HandlerFunc(n.handleWS)}
	go func() {
		if err := n.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("sandbox node stopped")
		}
	}()

	log.Debug().Msgf("sandbox node listening on %s", n.URL())
	return n, nil
}

// URL returns the websocket endpoint clients dial.
func (n *Node) URL() string {
	return "ws://" + n.listener.Addr().String()
}

// Close stops the server and drops every open connection.
func (n *Node) Close() error {
	n.mu.Lock()
	for s := range n.sessions {
		s.ws.Close()
	}
	n.sessions = make(map[*session]struct{})
	n.mu.Unlock()
	return n.server.Close()
}

func (n *Node) handleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := n.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("failed websocket upgrade")
		return
	}
	s := &session{node: n, ws: ws, headSubs: make(map[string]struct{})}

	n.mu.Lock()
	n.sessions[s] = struct{}{}
	n.mu.Unlock()

	defer func() {
		n.mu.Lock()
		delete(n.sessions, s)
		n.mu.Unlock()
		ws.Close()
	}()

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			return
		}
		var req wireRequest
		if err := json.Unmarshal(data, &req); err != nil {
			s.writeError(nil, &rpc.Error{Code: rpc.CodeInvalidRequest, Message: "malformed request"})
			continue
		}
		s.handle(&req)
	}
}

func (s *session) handle(req *wireRequest) {
	result, rpcErr := s.dispatch(req)
	if rpcErr != nil {
		s.writeError(req.ID, rpcErr)
		return
	}
	s.writeResult(req.ID, result)
}

func (s *session) dispatch(req *wireRequest) (interface{}, *rpc.Error) {
	ledger := s.node.ledger
	switch req.Method {
	case "chain_getHeader":
		return ledger.Header(), nil

	case "state_runtimeVersion":
		return model.RuntimeVersion{SpecName: SpecName, SpecVersion: SpecVersion}, nil

	case "system_account":
		var addr string
		if err := decodeParams(req.Params, &addr); err != nil {
			return nil, err
		}
		return ledger.Account(addr), nil

	case "author_submitAndWaitExtrinsic":
		var ext model.Extrinsic
		if err := decodeParams(req.Params, &ext); err != nil {
			return nil, err
		}
		result, err := ledger.Apply(&ext)
		if err != nil {
			return nil, moduleRPCError(err)
		}
		log.Debug().Msgf("applied %s.%s from %s in block %d",
			ext.Call.Module, ext.Call.Method, ext.Signer, result.Block.Number)
		s.node.broadcastHead(result.Block)
		return result, nil

	case "chain_subscribeNewHeads":
		id := strconv.FormatUint(s.node.nextSubID.Add(1), 10)
		s.mu.Lock()
		s.headSubs[id] = struct{}{}
		s.mu.Unlock()
		return id, nil

	case "chain_unsubscribeNewHeads":
		var id string
		if err := decodeParams(req.Params, &id); err != nil {
			return nil, err
		}
		s.mu.Lock()
		_, ok := s.headSubs[id]
		delete(s.headSubs, id)
		s.mu.Unlock()
		return ok, nil

	case "bounty_bounty":
		var id uint64
		if err := decodeParams(req.Params, &id); err != nil {
			return nil, err
		}
		return ledger.Bounty(id), nil

	case "bounty_submission":
		var id uint64
		if err := decodeParams(req.Params, &id); err != nil {
			return nil, err
		}
		return ledger.Submission(id), nil

	case "bounty_contribution":
		var id uint64
		var acct string
		if err := decodeParams(req.Params, &id, &acct); err != nil {
			return nil, err
		}
		return ledger.Contribution(id, acct), nil

	case "bounty_openBounties":
		var min uint64
		if err := decodeParams(req.Params, &min); err != nil {
			return nil, err
		}
		return ledger.OpenBounties(min), nil

	case "bounty_openSubmissions":
		var id uint64
		if err := decodeParams(req.Params, &id); err != nil {
			return nil, err
		}
		return ledger.OpenSubmissions(id), nil

	case "bounty_contributions":
		var id uint64
		if err := decodeParams(req.Params, &id); err != nil {
			return nil, err
		}
		return ledger.BountyContributions(id), nil

	case "bounty_accountContributions":
		var acct string
		if err := decodeParams(req.Params, &acct); err != nil {
			return nil, err
		}
		return ledger.AccountContributions(acct), nil

	default:
		return nil, &rpc.Error{Code: rpc.CodeMethodNotFound, Message: fmt.Sprintf("method %s not found", req.Method)}
	}
}

func (s *session) writeResult(id *uint64, result interface{}) {
	raw, err := json.Marshal(result)
	if err != nil {
		s.writeError(id, &rpc.Error{Code: rpc.CodeInternal, Message: "failed to encode result"})
		return
	}
	s.write(&wireResponse{JSONRPC: "2.0", ID: id, Result: raw})
}

func (s *session) writeError(id *uint64, rpcErr *rpc.Error) {
	s.write(&wireResponse{JSONRPC: "2.0", ID: id, Error: rpcErr})
}

func (s *session) write(v interface{}) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.ws.WriteJSON(v); err != nil {
		log.Debug().Err(err).Msg("failed to write to client, dropping connection")
		s.ws.Close()
	}
}

func (s *session) notifyHead(header model.Header) {
	s.mu.Lock()
	ids := make([]string, 0, len(s.headSubs))
	for id := range s.headSubs {
		ids = append(ids, id)
	}
	s.mu.Unlock()

	for _, id := range ids {
		s.write(&wireNotification{
			JSONRPC: "2.0",
			Method:  "chain_newHead",
			Params:  notificationBody{Subscription: id, Result: header},
		})
	}
}

func (n *Node) broadcastHead(header model.Header) {
	n.mu.Lock()
	sessions := make([]*session, 0, len(n.sessions))
	for s := range n.sessions {
		sessions = append(sessions, s)
	}
	n.mu.Unlock()

	for _, s := range sessions {
		s.notifyHead(header)
	}
}

func moduleRPCError(err error) *rpc.Error {
	if modErr, ok := err.(*ModuleError); ok {
		data, _ := json.Marshal(modErr)
		return &rpc.Error{Code: rpc.CodeModuleError, Message: modErr.Error(), Data: data}
	}
	return &rpc.Error{Code: rpc.CodeInternal, Message: err.Error()}
}

func decodeParams(params []json.RawMessage, out ...interface{}) *rpc.Error {
	if len(params) != len(out) {
		return &rpc.Error{Code: rpc.CodeInvalidParams, Message: fmt.Sprintf("expected %d params, got %d", len(out), len(params))}
	}
	for i, raw := range params {
		if err := json.Unmarshal(raw, out[i]); err != nil {
			return &rpc.Error{Code: rpc.CodeInvalidParams, Message: fmt.Sprintf("bad param %d: %v", i, err)}
		}
	}
	return nil
}
