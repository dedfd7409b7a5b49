// Package api provides HTTP handlers for the colormap server.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/microvis/cmap/internal/cache"
	"github.com/microvis/cmap/internal/render"
	"github.com/microvis/cmap/internal/service"
	"github.com/microvis/cmap/pkg/colormap"
)

// maxBodyBytes bounds POST bodies.
const maxBodyBytes = 1 << 20

// RouterConfig contains router configuration.
type RouterConfig struct {
	Service     *service.ColormapService
	Cache       *cache.Manager // optional; caches parse responses
	CORSOrigins []string
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	svc := cfg.Service

	r.Route("/api", func(r chi.Router) {
		r.Route("/colormaps", func(r chi.Router) {
			r.Get("/", colormapsHandler(svc))
			r.Post("/", createHandler(svc))
			r.Post("/parse", parseStopsHandler(svc, cfg.Cache))

			// Colormap-scoped routes: /api/colormaps/{name}/...
			r.Route("/{name}", func(r chi.Router) {
				r.Use(colormapMiddleware(svc))

				r.Get("/", describeHandler(svc))
				r.Delete("/", deleteHandler(svc))
				r.Get("/lut", lutHandler(svc))
				r.Get("/eval", evalHandler(svc))
				r.Get("/colorbar.png", colorbarHandler(svc))
				r.Get("/sineramp.png", testImageHandler(svc, service.ImageSineramp))
				r.Get("/circle.png", testImageHandler(svc, service.ImageCircle))
			})
		})

		r.Get("/colors/parse", parseColorHandler(svc))

		r.Route("/palettes", func(r chi.Router) {
			r.Get("/", palettesHandler(svc))
			r.Get("/{name}", paletteHandler(svc))
			r.Get("/{name}/swatch.png", paletteImageHandler(svc))
		})

		r.Get("/cache/stats", statsHandler(svc))
	})

	return r
}

// Context key for the requested colormap
type ctxKey string

const colormapKey ctxKey = "colormap"

// colormapMiddleware resolves {name} and the optional gamma query
// parameter, answering 404 for unknown colormaps before the handler runs.
func colormapMiddleware(svc *service.ColormapService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gamma, err := floatParam(r.URL.Query(), "gamma")
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			if r.Method == http.MethodDelete {
				// Deletion reports unknown names itself.
				next.ServeHTTP(w, r)
				return
			}
			cm, err := svc.Resolve(chi.URLParam(r, "name"), gamma)
			if err != nil {
				writeError(w, err)
				return
			}
			ctx := context.WithValue(r.Context(), colormapKey, cm)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func getColormap(r *http.Request) *colormap.Colormap {
	cm, _ := r.Context().Value(colormapKey).(*colormap.Colormap)
	return cm
}

// writeError maps service and library errors to HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, colormap.ErrUnknownColormap):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrReadOnly):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrInvalidName),
		errors.Is(err, render.ErrInvalidSize),
		errors.Is(err, colormap.ErrInvalidColorFormat),
		errors.Is(err, colormap.ErrUnknownColorName),
		errors.Is(err, colormap.ErrTypeMismatch),
		errors.Is(err, colormap.ErrInvalidArgument),
		errors.Is(err, colormap.ErrInvalidColorStops):
		status = http.StatusBadRequest
	}
	http.Error(w, err.Error(), status)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writePNG(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(data)
}

// floatParam parses an optional finite float query parameter; absent
// means 0.
func floatParam(q url.Values, key string) (float64, error) {
	s := strings.TrimSpace(q.Get(key))
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.New("invalid " + key)
	}
	return v, nil
}

// intParam parses an optional non-negative integer query parameter.
func intParam(q url.Values, key string) (int, error) {
	s := strings.TrimSpace(q.Get(key))
	if s == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return 0, errors.New("invalid " + key)
	}
	return v, nil
}

func colormapsHandler(svc *service.ColormapService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		names := svc.Names()
		custom := make([]string, 0)
		for _, name := range names {
			if svc.IsCustom(name) {
				custom = append(custom, name)
			}
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"colormaps": names,
			"custom":    custom,
		})
	}
}

func describeHandler(svc *service.ColormapService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cm := getColormap(r)
		info, err := svc.Describe(cm.Name(), cm.Gamma())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, info)
	}
}

func lutHandler(svc *service.ColormapService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		n, err := intParam(q, "n")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		format := q.Get("format")
		if format == "" {
			format = service.FormatJSON
		}
		switch c := q.Get("compress"); c {
		case "":
		case "zstd":
			if format != service.FormatBinary {
				http.Error(w, "compress=zstd requires format=bin", http.StatusBadRequest)
				return
			}
			format = service.FormatBinaryZstd
		default:
			http.Error(w, "unknown compression: "+c, http.StatusBadRequest)
			return
		}

		cm := getColormap(r)
		data, err := svc.LUTBytes(cm.Name(), n, cm.Gamma(), format)
		if err != nil {
			writeError(w, err)
			return
		}

		switch format {
		case service.FormatJSON:
			w.Header().Set("Content-Type", "application/json")
		case service.FormatBinaryZstd:
			w.Header().Set("Content-Type", "application/octet-stream")
			w.Header().Set("X-LUT-Compression", "zstd")
		default:
			w.Header().Set("Content-Type", "application/octet-stream")
		}
		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Write(data)
	}
}

func evalHandler(svc *service.ColormapService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var xs []float64
		for _, raw := range r.URL.Query()["x"] {
			for _, s := range strings.Split(raw, ",") {
				s = strings.TrimSpace(s)
				if s == "" {
					continue
				}
				v, err := strconv.ParseFloat(s, 64)
				if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
					http.Error(w, "invalid x: "+s, http.StatusBadRequest)
					return
				}
				xs = append(xs, v)
			}
		}
		if len(xs) == 0 {
			http.Error(w, "x is required", http.StatusBadRequest)
			return
		}

		cm := getColormap(r)
		results, err := svc.Evaluate(cm.Name(), xs, cm.Gamma())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"name":   cm.Name(),
			"values": results,
		})
	}
}

func colorbarHandler(svc *service.ColormapService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		width, err := intParam(q, "width")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		height, err := intParam(q, "height")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		cm := getColormap(r)
		data, err := svc.Colorbar(cm.Name(), width, height, cm.Gamma())
		if err != nil {
			writeError(w, err)
			return
		}
		writePNG(w, data)
	}
}

func testImageHandler(svc *service.ColormapService, kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cm := getColormap(r)
		data, err := svc.TestImage(cm.Name(), kind, cm.Gamma())
		if err != nil {
			writeError(w, err)
			return
		}
		writePNG(w, data)
	}
}

type parseStopsRequest struct {
	Colors   json.RawMessage `json:"colors"`
	FillMode string          `json:"fill_mode"`
}

type parseStopsResponse struct {
	Stops  []colormap.HexStop `json:"stops"`
	Array  [][5]float64       `json:"array"`
	Plotly [][]any            `json:"plotly"`
}

func parseStopsHandler(svc *service.ColormapService, qc *cache.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
		if err != nil {
			http.Error(w, "failed to read request body", http.StatusBadRequest)
			return
		}

		cacheKey := cache.BodyKey("parse", body)
		if qc != nil {
			if data, ok := qc.GetQuery(cacheKey); ok {
				w.Header().Set("Content-Type", "application/json")
				w.Write(data)
				return
			}
		}

		var req parseStopsRequest
		if err := json.Unmarshal(body, &req); err != nil {
			http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
			return
		}
		colors, err := service.DecodeColors(req.Colors)
		if err != nil {
			writeError(w, err)
			return
		}
		stops, err := svc.ParseStops(colors, req.FillMode)
		if err != nil {
			writeError(w, err)
			return
		}
		parsed, err := colormap.New(stops)
		if err != nil {
			writeError(w, err)
			return
		}

		data, err := json.Marshal(parseStopsResponse{
			Stops:  parsed.HexStops(),
			Array:  stops.Array(),
			Plotly: parsed.ToPlotly(),
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if qc != nil {
			qc.SetQuery(cacheKey, data)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	}
}

func createHandler(svc *service.ColormapService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req service.CreateRequest
		dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
		if err := dec.Decode(&req); err != nil {
			http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
			return
		}

		info, err := svc.Create(req)
		if err != nil {
			writeError(w, err)
			return
		}
		w.Header().Set("Location", "/api/colormaps/"+url.PathEscape(info.Name))
		writeJSON(w, http.StatusCreated, info)
	}
}

func deleteHandler(svc *service.ColormapService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Delete(chi.URLParam(r, "name")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func parseColorHandler(svc *service.ColormapService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		input := r.URL.Query().Get("c")
		if input == "" {
			http.Error(w, "c is required", http.StatusBadRequest)
			return
		}
		info, err := svc.ParseColor(input)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, info)
	}
}

func palettesHandler(svc *service.ColormapService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"palettes": svc.PaletteNames(),
		})
	}
}

func paletteHandler(svc *service.ColormapService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		colors, err := svc.Palette(name)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"name":   name,
			"colors": colors,
		})
	}
}

func paletteImageHandler(svc *service.ColormapService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cell, err := intParam(r.URL.Query(), "cell")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		data, err := svc.PaletteImage(chi.URLParam(r, "name"), cell)
		if err != nil {
			writeError(w, err)
			return
		}
		writePNG(w, data)
	}
}

func statsHandler(svc *service.ColormapService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, svc.Stats())
	}
}
