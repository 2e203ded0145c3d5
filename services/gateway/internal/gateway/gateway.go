package gateway

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"ecomercado-system/services/gateway/internal/proxy"

	"github.com/gorilla/mux"
)

// Handler routes inbound requests to the matching backend proxy. The first
// path segment selects the backend and is stripped before forwarding; every
// other header goes through unmodified, Authorization included; each
// backend verifies it independently.
type Handler struct {
	proxies map[string]*proxy.Proxy
}

func New(proxies map[string]*proxy.Proxy) *Handler {
	return &Handler{proxies: proxies}
}

func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(corsMiddleware)

	for prefix := range h.proxies {
		p := h.proxies[prefix]
		fn := h.forward(prefix, p)
		// Match the whole first segment only. A raw PathPrefix would let
		// "/pedidosfoo" ride on the "pedidos" backend.
		r.Path("/" + prefix).HandlerFunc(fn)
		r.PathPrefix("/" + prefix + "/").HandlerFunc(fn)
	}
	r.NotFoundHandler = corsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "rota não encontrada", r.URL.Path)
	}))
	return r
}

func (h *Handler) forward(prefix string, p *proxy.Proxy) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, "/"+prefix)
		if r.URL.RawQuery != "" {
			path += "?" + r.URL.RawQuery
		}
		log.Printf("➡️  %s %s -> %s", r.Method, r.URL.Path, p.Backend().Name)

		res, err := p.Do(r.Context(), r.Method, path, r.Header, r.Body)
		if err != nil {
			writeError(w, http.StatusServiceUnavailable,
				"Erro ao acessar o serviço "+p.Backend().Name, err.Error())
			return
		}

		for k, vs := range res.Header {
			for _, v := range vs {
				w.Header().Add(k, v)
			}
		}
		w.WriteHeader(res.StatusCode)
		w.Write(res.Body)
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeError(w http.ResponseWriter, code int, erro, detalhes string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"erro": erro, "detalhes": detalhes})
}
