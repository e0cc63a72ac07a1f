//go:build !ios && !android && (amd64 || arm64)

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/disintegration/imaging"
	"github.com/gorilla/mux"
	"github.com/ideamans/go-l10n"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"

	"github.com/obinnaokechukwu/ffsnap"
	"github.com/obinnaokechukwu/ffsnap/internal/metrics"
)

func (r *runner) serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: l10n.T("Serve previews over HTTP"),
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "root", Value: ".", Usage: l10n.T("Directory served"), EnvVars: []string{"FFSNAP_ROOT"}},
			&cli.StringFlag{Name: "addr", Value: ":8080", Usage: l10n.T("Listen address"), EnvVars: []string{"FFSNAP_ADDR"}},
			sizeFlag("256x256"),
		},
		Action: func(c *cli.Context) error {
			size, err := parseSize(c.String("size"))
			if err != nil {
				return err
			}
			s, err := newServer(c.String("root"), r.cfg, size, r.log)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			srv := &http.Server{
				Addr:              c.String("addr"),
				Handler:           s.routes(),
				ReadHeaderTimeout: 10 * time.Second,
			}
			errc := make(chan error, 1)
			go func() {
				r.log.Info("serving previews", "addr", srv.Addr, "root", s.root)
				errc <- srv.ListenAndServe()
			}()

			select {
			case err := <-errc:
				return err
			case <-ctx.Done():
			}
			r.log.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
}

// server answers preview requests for files below root. Each request opens
// its own MediaSource.
type server struct {
	root string
	cfg  ffsnap.Config
	size image.Point
	log  *slog.Logger
}

func newServer(root string, cfg ffsnap.Config, size image.Point, log *slog.Logger) (*server, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if abs, err = filepath.EvalSymlinks(abs); err != nil {
		return nil, err
	}
	return &server{root: abs, cfg: cfg, size: size, log: log}, nil
}

func (s *server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.metrics)

	r.Handle("/metrics", promhttp.Handler()).Methods("GET")
	r.HandleFunc("/info/{path:.*}", s.handleInfo).Methods("GET")
	r.HandleFunc("/thumbnail/{path:.*}", s.handleThumbnail).Methods("GET")
	r.HandleFunc("/cover/{path:.*}", s.handleCover).Methods("GET")
	r.HandleFunc("/snapshot/{path:.*}", s.handleSnapshot).Methods("GET")
	return r
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// metrics records request counts and latency by route template.
func (s *server) metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := "unknown"
		if cur := mux.CurrentRoute(r); cur != nil {
			if tmpl, err := cur.GetPathTemplate(); err == nil {
				route = tmpl
			}
		}
		if route == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)

		metrics.HTTPRequestsTotal.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

var errOutsideRoot = errors.New("path outside root")

// resolve maps a request path to a regular file below root.
func (s *server) resolve(p string) (string, error) {
	full := filepath.Join(s.root, filepath.FromSlash(path.Clean("/"+p)))
	resolved, err := filepath.EvalSymlinks(full)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(s.root, resolved)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errOutsideRoot
	}
	fi, err := os.Stat(resolved)
	if err != nil {
		return "", err
	}
	if !fi.Mode().IsRegular() {
		return "", os.ErrNotExist
	}
	return resolved, nil
}

// withMedia resolves and opens the file named by the request, writing the
// error response itself when that fails.
func (s *server) withMedia(w http.ResponseWriter, r *http.Request, fn func(m *ffsnap.MediaSource) error) {
	p := mux.Vars(r)["path"]
	file, err := s.resolve(p)
	if err != nil {
		s.fail(w, p, err)
		return
	}
	m, err := ffsnap.OpenFile(file, ffsnap.WithConfig(s.cfg))
	if err != nil {
		s.fail(w, p, err)
		return
	}
	defer m.Close()
	if err := fn(m); err != nil {
		s.fail(w, p, err)
	}
}

func (s *server) fail(w http.ResponseWriter, p string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, os.ErrNotExist):
		status = http.StatusNotFound
	case errors.Is(err, errOutsideRoot):
		status = http.StatusForbidden
	case errors.Is(err, ffsnap.ErrOpen), errors.Is(err, ffsnap.ErrStreamSelection):
		status = http.StatusUnsupportedMediaType
	case errors.Is(err, errBadRequest):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		s.log.Error("preview failed", "path", p, "error", err)
	} else {
		s.log.Debug("preview rejected", "path", p, "status", status, "error", err)
	}
	http.Error(w, http.StatusText(status), status)
}

var errBadRequest = errors.New("bad request")

func writePNG(w http.ResponseWriter, data []byte) {
	if data == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Write(data)
}

// maxQuerySide bounds each axis of a requested preview size.
const maxQuerySide = 4096

func (s *server) querySize(r *http.Request) (image.Point, error) {
	q := r.URL.Query().Get("size")
	if q == "" {
		return s.size, nil
	}
	size, err := parseSize(q)
	if err != nil {
		return image.Point{}, errors.Join(errBadRequest, err)
	}
	if size.X > maxQuerySide || size.Y > maxQuerySide {
		return image.Point{}, fmt.Errorf("%w: size %dx%d over %d", errBadRequest, size.X, size.Y, maxQuerySide)
	}
	return size, nil
}

func (s *server) handleInfo(w http.ResponseWriter, r *http.Request) {
	s.withMedia(w, r, func(m *ffsnap.MediaSource) error {
		info := m.Info(path.Base(mux.Vars(r)["path"]))
		w.Header().Set("Content-Type", "application/json")
		return json.NewEncoder(w).Encode(info)
	})
}

func (s *server) handleThumbnail(w http.ResponseWriter, r *http.Request) {
	size, err := s.querySize(r)
	if err != nil {
		s.fail(w, mux.Vars(r)["path"], err)
		return
	}
	s.withMedia(w, r, func(m *ffsnap.MediaSource) error {
		img, err := m.Thumbnail(size)
		if err != nil {
			return err
		}
		if img == nil {
			writePNG(w, nil)
			return nil
		}
		var buf bytes.Buffer
		if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
			return err
		}
		writePNG(w, buf.Bytes())
		return nil
	})
}

func (s *server) handleCover(w http.ResponseWriter, r *http.Request) {
	mode, err := ffsnap.ParseCoverArtMode(r.URL.Query().Get("mode"))
	if err != nil {
		s.fail(w, mux.Vars(r)["path"], errors.Join(errBadRequest, err))
		return
	}
	s.withMedia(w, r, func(m *ffsnap.MediaSource) error {
		data, err := m.CoverArtData(mode)
		if err != nil {
			return err
		}
		writePNG(w, data)
		return nil
	})
}

func (s *server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	size, err := s.querySize(r)
	if err != nil {
		s.fail(w, mux.Vars(r)["path"], err)
		return
	}
	var at float64
	if q := r.URL.Query().Get("at"); q != "" {
		if at, err = strconv.ParseFloat(q, 64); err != nil {
			s.fail(w, mux.Vars(r)["path"], errors.Join(errBadRequest, err))
			return
		}
	}
	s.withMedia(w, r, func(m *ffsnap.MediaSource) error {
		data, err := m.EncodedImage(size, at)
		if err != nil {
			return err
		}
		writePNG(w, data)
		return nil
	})
}
