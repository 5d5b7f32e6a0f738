// Package server assembles the HTTP surface: the auth endpoint, the
// room websocket, and chart upload.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/aspagon17/piano-app/internal/auth"
	"github.com/aspagon17/piano-app/internal/parser"
	"github.com/aspagon17/piano-app/internal/room"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
)

const maxChartUpload = 4 << 20

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type Server struct {
	Addr   string
	Secret string

	rooms  *room.Manager
	parser parser.Parser
}

func New(ctx context.Context, addr, secret, redisAddr string) (*Server, error) {
	var rdb *redis.Client
	if redisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: redisAddr})
		if _, err := rdb.Ping(ctx).Result(); nil != err {
			return nil, fmt.Errorf("unable to connect to redis: %w", err)
		}
	}

	return &Server{
		Addr:   addr,
		Secret: secret,
		rooms:  room.NewManager(ctx, rdb),
		parser: &parser.DefaultParser{},
	}, nil
}

func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/api/auth", auth.Handler(s.Secret)).Methods(http.MethodPost)
	r.HandleFunc("/api/rooms/{room}/chart", s.handleChartUpload).Methods(http.MethodPost)
	r.HandleFunc("/ws", s.handleWS)
	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{Addr: s.Addr, Handler: s.Router()}

	errc := make(chan error, 1)
	go func() {
		log.Println("listening on", s.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	claims, err := auth.Verify(s.Secret, r.URL.Query().Get("token"), time.Now())
	if nil != err {
		http.Error(w, err.Error(), http.StatusForbidden)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if nil != err {
		log.Println("unable to upgrade connection:", err)
		return
	}

	hub := s.rooms.Get(claims.Room)
	client := room.NewClient(hub, conn, claims.Identity)
	hub.Register <- client
	go client.WritePump()
	go client.ReadPump()
}

// handleChartUpload parses an uploaded MIDI file and pushes the
// resulting chart to everyone in the room. Malformed input is a
// visible 400, never a silent skip.
func (s *Server) handleChartUpload(w http.ResponseWriter, r *http.Request) {
	if _, err := auth.Verify(s.Secret, r.URL.Query().Get("token"), time.Now()); nil != err {
		http.Error(w, err.Error(), http.StatusForbidden)
		return
	}

	roomName := mux.Vars(r)["room"]
	r.Body = http.MaxBytesReader(w, r.Body, maxChartUpload)
	if err := r.ParseMultipartForm(maxChartUpload); nil != err {
		http.Error(w, "unable to read upload", http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("chart")
	if nil != err {
		http.Error(w, "missing chart file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	chart, err := s.parser.ParseReader(header.Filename, file)
	if nil != err {
		http.Error(w, fmt.Sprintf("unable to parse midi: %v", err), http.StatusBadRequest)
		return
	}

	s.rooms.Get(roomName).BroadcastChart(chart)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(chart)
}
