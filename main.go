package main

import (
	"encoding/json"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"imagetext-studio/core"
	"imagetext-studio/document"
	"imagetext-studio/editor"
	"imagetext-studio/fonts"
	"imagetext-studio/handlers/api/captions"
	"imagetext-studio/handlers/api/compositions"
	"imagetext-studio/handlers/api/editorapi"
	"imagetext-studio/handlers/api/fontsapi"
	"imagetext-studio/handlers/api/shares"
	"imagetext-studio/handlers/auth"
	authMiddleware "imagetext-studio/middleware"
	"imagetext-studio/stores"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/engine.io/v2/utils"
	socketio "github.com/zishang520/socket.io/v2/socket"
)

type (
	// layerAddPayload and friends are the JSON payloads relayed over the
	// realtime channel; each event carries (compositionID, payload).
	layerAddPayload struct {
		Text string  `json:"text"`
		X    float64 `json:"x"`
		Y    float64 `json:"y"`
	}

	layerUpdatePayload struct {
		ID          string       `json:"id"`
		Text        *string      `json:"text,omitempty"`
		FontFamily  *string      `json:"fontFamily,omitempty"`
		FontSize    *float64     `json:"fontSize,omitempty"`
		FontWeight  *string      `json:"fontWeight,omitempty"`
		Fill        *string      `json:"fill,omitempty"`
		Opacity     *float64     `json:"opacity,omitempty"`
		Align       *string      `json:"align,omitempty"`
		X           *float64     `json:"x,omitempty"`
		Y           *float64     `json:"y,omitempty"`
		Width       *float64     `json:"width,omitempty"`
		Height      *float64     `json:"height,omitempty"`
		Angle       *float64     `json:"angle,omitempty"`
		ScaleX      *float64     `json:"scaleX,omitempty"`
		ScaleY      *float64     `json:"scaleY,omitempty"`
		LineHeight  *float64     `json:"lineHeight,omitempty"`
		CharSpacing *float64     `json:"charSpacing,omitempty"`
		Shadow      *core.Shadow `json:"shadow,omitempty"`
		ClearShadow bool         `json:"clearShadow,omitempty"`
		Locked      *bool        `json:"locked,omitempty"`
		Continuous  bool         `json:"continuous,omitempty"`
		Description string       `json:"description,omitempty"`
	}

	layerRemovePayload struct {
		ID string `json:"id"`
	}

	selectionPayload struct {
		IDs []string `json:"ids"`
	}

	objectMovedPayload struct {
		ID string  `json:"id"`
		X  float64 `json:"x"`
		Y  float64 `json:"y"`
	}

	objectModifiedPayload struct {
		ID     string  `json:"id"`
		X      float64 `json:"x"`
		Y      float64 `json:"y"`
		ScaleX float64 `json:"scaleX"`
		ScaleY float64 `json:"scaleY"`
		Angle  float64 `json:"angle"`
	}

	textEventPayload struct {
		ID   string `json:"id"`
		Text string `json:"text"`
	}
)

func (p layerUpdatePayload) toPatch() document.LayerPatch {
	return document.LayerPatch{
		Text:        p.Text,
		FontFamily:  p.FontFamily,
		FontSize:    p.FontSize,
		FontWeight:  p.FontWeight,
		Fill:        p.Fill,
		Opacity:     p.Opacity,
		Align:       p.Align,
		X:           p.X,
		Y:           p.Y,
		Width:       p.Width,
		Height:      p.Height,
		Angle:       p.Angle,
		ScaleX:      p.ScaleX,
		ScaleY:      p.ScaleY,
		LineHeight:  p.LineHeight,
		CharSpacing: p.CharSpacing,
		Shadow:      p.Shadow,
		ClearShadow: p.ClearShadow,
		Locked:      p.Locked,
	}
}

func setupRouter(store stores.Store, manager *editor.Manager, authSvc *auth.Service) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Logger)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Content-Length", "X-CSRF-Token", "Token", "session", "Origin", "Host", "Connection", "Accept-Encoding", "Accept-Language", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))

	fontCatalog := fonts.NewCatalog(fontCatalogURL(), os.Getenv("FONTS_API_KEY"))
	fontLoader := fonts.NewLoader(fontCatalog)
	captionProxy := captions.NewProxy()

	r.Route("/api/v2", func(r chi.Router) {
		// Saved compositions and caption suggestions require a login.
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.AuthJWT(authSvc))
			r.Route("/compositions", func(r chi.Router) {
				r.Get("/", compositions.HandleList(store))
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", compositions.HandleGet(store))
					r.Put("/", compositions.HandleSave(store))
					r.Delete("/", compositions.HandleDelete(store))
				})
			})
			r.Route("/captions", func(r chi.Router) {
				r.Post("/completions", captionProxy.HandleCompletion())
			})
		})

		// Editing sessions are anonymous, like the realtime rooms.
		r.Route("/editor/{id}", func(r chi.Router) {
			r.Get("/", editorapi.HandleState(manager))
			r.Put("/background", editorapi.HandleSetBackground(manager))
			r.Post("/layers", editorapi.HandleAddLayer(manager))
			r.Route("/layers/{layerId}", func(r chi.Router) {
				r.Patch("/", editorapi.HandleUpdateLayer(manager))
				r.Delete("/", editorapi.HandleRemoveLayer(manager))
				r.Post("/reorder", editorapi.HandleReorderLayer(manager))
			})
			r.Post("/selection", editorapi.HandleSelect(manager))
			r.Post("/nudge", editorapi.HandleNudge(manager))
			r.Post("/distribute", editorapi.HandleDistribute(manager))
			r.Post("/undo", editorapi.HandleUndo(manager))
			r.Post("/redo", editorapi.HandleRedo(manager))
			r.Post("/reset", editorapi.HandleReset(manager))
			r.Get("/export", editorapi.HandleExport(manager))
		})

		r.Route("/fonts", func(r chi.Router) {
			r.Get("/", fontsapi.HandleList(fontCatalog))
			r.Post("/load", fontsapi.HandleLoad(fontLoader))
		})

		// Anonymous composition sharing
		r.Post("/post/", shares.HandleCreate(store))
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", shares.HandleGet(store))
		})
	})

	r.Route("/auth", func(r chi.Router) {
		r.Get("/login", authSvc.HandleLogin)
		r.Get("/callback", authSvc.HandleCallback)
	})

	return r
}

func fontCatalogURL() string {
	if url := os.Getenv("FONTS_API_URL"); url != "" {
		return url
	}
	return "https://www.googleapis.com/webfonts/v1/webfonts"
}

// decodeEvent parses a realtime event payload, which arrives either as a
// JSON string or as an already-decoded map.
func decodeEvent(data any, into any) bool {
	switch v := data.(type) {
	case string:
		return json.Unmarshal([]byte(v), into) == nil
	case []byte:
		return json.Unmarshal(v, into) == nil
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return false
		}
		return json.Unmarshal(raw, into) == nil
	}
}

func setupSocketIO(manager *editor.Manager) *socketio.Server {
	opts := socketio.DefaultServerOptions()
	opts.SetMaxHttpBufferSize(5000000)
	opts.SetPath("/socket.io")
	opts.SetAllowEIO3(true)
	opts.SetCors(&types.Cors{
		Origin:      "*",
		Credentials: true,
	})
	ioo := socketio.NewServer(nil, opts)

	// broadcast pushes the session state to everyone editing a composition.
	broadcast := func(roomID string) {
		state := manager.Get(roomID).State()
		raw, err := json.Marshal(state)
		if err != nil {
			logrus.WithError(err).Error("Failed to marshal session state")
			return
		}
		ioo.In(socketio.Room(roomID)).Emit("composition-update", string(raw))
	}

	ioo.On("connection", func(clients ...any) {
		socket := clients[0].(*socketio.Socket)
		me := socket.Id()
		myRoom := socketio.Room(me)
		ioo.To(myRoom).Emit("init-room")
		utils.Log().Println("init room %v", myRoom)

		socket.On("join-composition", func(datas ...any) {
			roomID := datas[0].(string)
			room := socketio.Room(roomID)
			utils.Log().Printf("Socket %v has joined composition %v\n", me, room)
			socket.Join(room)
			ioo.In(room).FetchSockets()(func(usersInRoom []*socketio.RemoteSocket, _ error) {
				if len(usersInRoom) <= 1 {
					ioo.To(myRoom).Emit("first-in-room")
				} else {
					socket.Broadcast().To(room).Emit("new-user", me)
				}

				roomUsers := []socketio.SocketId{}
				for _, user := range usersInRoom {
					roomUsers = append(roomUsers, user.Id())
				}
				ioo.In(room).Emit("room-user-change", roomUsers)
			})
			// Late joiners need the current state immediately.
			broadcast(roomID)
		})

		socket.On("layer-add", func(datas ...any) {
			roomID := datas[0].(string)
			var payload layerAddPayload
			if !decodeEvent(datas[1], &payload) {
				return
			}
			if payload.Text == "" {
				payload.Text = "New text"
			}
			manager.Get(roomID).AddLayer(payload.Text, payload.X, payload.Y)
			broadcast(roomID)
		})

		socket.On("layer-update", func(datas ...any) {
			roomID := datas[0].(string)
			var payload layerUpdatePayload
			if !decodeEvent(datas[1], &payload) {
				return
			}
			description := payload.Description
			if description == "" {
				description = "Edit text properties"
			}
			sess := manager.Get(roomID)
			if payload.Continuous {
				sess.UpdateLayerContinuous(payload.ID, payload.toPatch(), description)
			} else {
				sess.UpdateLayer(payload.ID, payload.toPatch(), description)
			}
			broadcast(roomID)
		})

		socket.On("layer-remove", func(datas ...any) {
			roomID := datas[0].(string)
			var payload layerRemovePayload
			if !decodeEvent(datas[1], &payload) {
				return
			}
			manager.Get(roomID).RemoveLayer(payload.ID)
			broadcast(roomID)
		})

		socket.On("selection", func(datas ...any) {
			roomID := datas[0].(string)
			var payload selectionPayload
			if !decodeEvent(datas[1], &payload) {
				return
			}
			manager.Get(roomID).Select(payload.IDs...)
			broadcast(roomID)
		})

		socket.On("object-moved", func(datas ...any) {
			roomID := datas[0].(string)
			var payload objectMovedPayload
			if !decodeEvent(datas[1], &payload) {
				return
			}
			manager.Get(roomID).HandleObjectMoved(payload.ID, payload.X, payload.Y)
			broadcast(roomID)
		})

		socket.On("object-modified", func(datas ...any) {
			roomID := datas[0].(string)
			var payload objectModifiedPayload
			if !decodeEvent(datas[1], &payload) {
				return
			}
			manager.Get(roomID).HandleObjectModified(payload.ID, payload.X, payload.Y, payload.ScaleX, payload.ScaleY, payload.Angle)
			broadcast(roomID)
		})

		socket.On("text-changed", func(datas ...any) {
			roomID := datas[0].(string)
			var payload textEventPayload
			if !decodeEvent(datas[1], &payload) {
				return
			}
			manager.Get(roomID).HandleTextChanged(payload.ID, payload.Text)
			broadcast(roomID)
		})

		socket.On("text-editing-finished", func(datas ...any) {
			roomID := datas[0].(string)
			var payload textEventPayload
			if !decodeEvent(datas[1], &payload) {
				return
			}
			manager.Get(roomID).HandleTextEditingFinished(payload.ID, payload.Text)
			broadcast(roomID)
		})

		socket.On("distribute", func(datas ...any) {
			roomID := datas[0].(string)
			axis, _ := datas[1].(string)
			sess := manager.Get(roomID)
			if axis == "vertical" {
				sess.DistributeVertically()
			} else {
				sess.DistributeHorizontally()
			}
			broadcast(roomID)
		})

		socket.On("undo", func(datas ...any) {
			roomID := datas[0].(string)
			manager.Get(roomID).Undo()
			broadcast(roomID)
		})

		socket.On("redo", func(datas ...any) {
			roomID := datas[0].(string)
			manager.Get(roomID).Redo()
			broadcast(roomID)
		})

		socket.On("disconnecting", func(datas ...any) {
			for _, currentRoom := range socket.Rooms().Keys() {
				ioo.In(currentRoom).FetchSockets()(func(usersInRoom []*socketio.RemoteSocket, _ error) {
					otherClients := []socketio.SocketId{}
					utils.Log().Printf("disconnecting %v from room %v\n", me, currentRoom)
					for _, userInRoom := range usersInRoom {
						if userInRoom.Id() != me {
							otherClients = append(otherClients, userInRoom.Id())
						}
					}
					if len(otherClients) > 0 {
						ioo.In(currentRoom).Emit("room-user-change", otherClients)
					}
				})
			}
		})

		socket.On("disconnect", func(datas ...any) {
			socket.RemoveAllListeners("")
			socket.Disconnect(true)
		})
	})
	return ioo
}

func waitForShutdown(ioo *socketio.Server, manager *editor.Manager) {
	exit := make(chan struct{})
	signalC := make(chan os.Signal, 1)

	signal.Notify(signalC, os.Interrupt, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		for s := range signalC {
			switch s {
			case os.Interrupt, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT:
				close(exit)
				return
			}
		}
	}()

	<-exit
	logrus.Info("Shutting down...")
	manager.FlushAll()
	ioo.Close(nil)
	os.Exit(0)
}

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found")
	}

	listenAddress := flag.String("listen", ":3002", "The address to listen on.")
	logLevel := flag.String("loglevel", "info", "The log level (debug, info, warn, error).")
	flag.Parse()

	level, err := logrus.ParseLevel(*logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %v", err)
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	authSvc := auth.NewService()
	store := stores.GetStore()
	manager := editor.NewManager(store)

	r := setupRouter(store, manager, authSvc)

	ioo := setupSocketIO(manager)
	r.Mount("/socket.io/", ioo.ServeHandler(nil))

	logrus.WithField("addr", *listenAddress).Info("starting server")
	go func() {
		if err := http.ListenAndServe(*listenAddress, r); err != nil {
			logrus.WithField("event", "start server").Fatal(err)
		}
	}()

	logrus.Debug("Server is running in the background")
	waitForShutdown(ioo, manager)
}
