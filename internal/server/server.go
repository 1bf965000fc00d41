// internal/server/server.go
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/ThinkInAIXYZ/go-mcp/protocol"
	"github.com/ThinkInAIXYZ/go-mcp/server"
	"github.com/rs/zerolog"

	"mcp-med-scan/internal/lookup"
	"mcp-med-scan/internal/storage"
)

type Config struct {
	Transport string
	Host      string
	Port      int
	DBPath    string
}

// MedScanServer exposes the medication scan/lookup core as MCP tools over
// HTTP: barcode lookup with fallback, label parsing (AI-first), schedule
// simplification, and saved-medication listing.
type MedScanServer struct {
	server       *server.Server
	httpServer   *http.Server
	storage      *storage.MedicationStore
	orchestrator *lookup.Orchestrator
	interpreter  *Interpreter
	config       *Config
	log          zerolog.Logger
}

func NewMedScanServer(cfg *Config, log zerolog.Logger) (*MedScanServer, error) {
	store, err := storage.NewMedicationStore(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	medServer := &MedScanServer{
		storage:      store,
		orchestrator: lookup.NewOrchestrator(log),
		interpreter:  NewInterpreter(log),
		config:       cfg,
		log:          log,
	}

	mux := http.NewServeMux()

	// Create MCP server (without transport, we handle HTTP manually)
	mcpServer, err := server.NewServer(
		nil,
		server.WithServerInfo(protocol.Implementation{
			Name:    "med-scan",
			Version: "1.0.0",
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create MCP server: %w", err)
	}

	medServer.server = mcpServer

	if err := medServer.registerTools(); err != nil {
		return nil, fmt.Errorf("failed to register tools: %w", err)
	}

	mux.HandleFunc("/", medServer.handleHTTP)

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	medServer.httpServer = &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	return medServer, nil
}

func (s *MedScanServer) handleHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

	if r.Method == http.MethodOptions {
		return
	}

	var request protocol.CallToolRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, fmt.Sprintf("Invalid JSON: %v", err), http.StatusBadRequest)
		return
	}

	var result *protocol.CallToolResult
	var err error

	switch request.Name {
	case "lookup_medication":
		result, err = s.handleLookupMedication(r.Context(), &request)
	case "parse_label":
		result, err = s.handleParseLabel(r.Context(), &request)
	case "simplify_schedule":
		result, err = s.handleSimplifySchedule(&request)
	case "get_medications":
		result, err = s.handleGetMedications(&request)
	default:
		http.Error(w, fmt.Sprintf("Unknown tool: %s", request.Name), http.StatusNotFound)
		return
	}

	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if err := json.NewEncoder(w).Encode(result); err != nil {
		s.log.Error().Err(err).Msg("failed to encode response")
	}
}

func (s *MedScanServer) Start(ctx context.Context) error {
	s.log.Info().Str("addr", s.httpServer.Addr).Msg("starting med scan server")
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *MedScanServer) Stop() error {
	if s.storage != nil {
		s.storage.Close()
	}
	if s.httpServer != nil {
		return s.httpServer.Shutdown(context.Background())
	}
	return nil
}

func (s *MedScanServer) createJSONResponse(data interface{}) (*protocol.CallToolResult, error) {
	jsonBytes, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response: %w", err)
	}

	return &protocol.CallToolResult{
		Content: []protocol.Content{
			protocol.TextContent{
				Type: "text",
				Text: string(jsonBytes),
			},
		},
	}, nil
}
