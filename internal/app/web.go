package app

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/accel_computer/internal/accel"
	"github.com/relabs-tech/accel_computer/internal/config"
	"github.com/relabs-tech/accel_computer/internal/orientation"
)

//go:embed static
var staticFiles embed.FS

// WebState caches the latest retained messages for the HTTP API.
type WebState struct {
	mu sync.RWMutex

	sample     accel.Sample
	haveSample bool
	pose       orientation.Pose
	havePose   bool
	tap        accel.TapEvent
	haveTap    bool
}

func (w *WebState) setSample(s accel.Sample) {
	w.mu.Lock()
	w.sample, w.haveSample = s, true
	w.mu.Unlock()
}

func (w *WebState) setPose(p orientation.Pose) {
	w.mu.Lock()
	w.pose, w.havePose = p, true
	w.mu.Unlock()
}

func (w *WebState) setTap(t accel.TapEvent) {
	w.mu.Lock()
	w.tap, w.haveTap = t, true
	w.mu.Unlock()
}

// sampleResponse adds milli-g values to the raw sample.
type sampleResponse struct {
	accel.Sample
	XmG int `json:"x_mg"`
	YmG int `json:"y_mg"`
	ZmG int `json:"z_mg"`
}

// Handler serves the JSON API and the static page.
func (w *WebState) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/sample", func(rw http.ResponseWriter, r *http.Request) {
		w.mu.RLock()
		s, ok := w.sample, w.haveSample
		w.mu.RUnlock()
		if !ok {
			http.Error(rw, "no data yet", http.StatusServiceUnavailable)
			return
		}
		x, y, z := s.MilliG()
		writeJSON(rw, sampleResponse{Sample: s, XmG: x, YmG: y, ZmG: z})
	})
	mux.HandleFunc("/api/pose", func(rw http.ResponseWriter, r *http.Request) {
		w.mu.RLock()
		p, ok := w.pose, w.havePose
		w.mu.RUnlock()
		if !ok {
			http.Error(rw, "no data yet", http.StatusServiceUnavailable)
			return
		}
		writeJSON(rw, p)
	})
	mux.HandleFunc("/api/tap", func(rw http.ResponseWriter, r *http.Request) {
		w.mu.RLock()
		t, ok := w.tap, w.haveTap
		w.mu.RUnlock()
		if !ok {
			http.Error(rw, "no tap yet", http.StatusNotFound)
			return
		}
		writeJSON(rw, t)
	})

	static, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}
	mux.Handle("/", http.FileServer(http.FS(static)))
	return mux
}

func writeJSON(rw http.ResponseWriter, v any) {
	rw.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(rw).Encode(v); err != nil {
		log.WithField("component", "web").Warnf("json encode error: %v", err)
	}
}

// subscribeWeb decodes each topic into its WebState setter.
func subscribeWeb(client mqtt.Client, cfg *config.Config, state *WebState) error {
	subs := map[string]mqtt.MessageHandler{
		cfg.TopicSample: webHandler(cfg.TopicSample, state.setSample),
		cfg.TopicPose:   webHandler(cfg.TopicPose, state.setPose),
		cfg.TopicTap:    webHandler(cfg.TopicTap, state.setTap),
	}
	for topic, handler := range subs {
		token := client.Subscribe(topic, 0, handler)
		token.Wait()
		if token.Error() != nil {
			return fmt.Errorf("subscribe %s: %w", topic, token.Error())
		}
	}
	return nil
}

func webHandler[T any](topic string, set func(T)) mqtt.MessageHandler {
	return func(_ mqtt.Client, msg mqtt.Message) {
		var v T
		if err := json.Unmarshal(msg.Payload(), &v); err != nil {
			log.WithField("component", "web").Warnf("%s payload unmarshal error: %v", topic, err)
			return
		}
		set(v)
	}
}

// RunWeb serves the latest MQTT data over HTTP until ctx is done.
func RunWeb(ctx context.Context) error {
	cfg := config.Get()
	l := log.WithField("component", "web")

	client, err := connectMQTT(cfg, cfg.MQTTClientIDWeb)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)
	l.Infof("connected to MQTT broker at %s", cfg.MQTTBroker)

	state := &WebState{}
	if err := subscribeWeb(client, cfg, state); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.WebServerPort),
		Handler:           state.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdown)
	}()

	l.Infof("web server listening on %s", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
