package di

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"sync"
	"testing"
)

// User is the resource served by usersAPI.
type User struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// usersAPI is a small JSON API that counts the requests it serves.
type usersAPI struct {
	mu     sync.Mutex
	users  map[int]User
	nextID int
	hits   map[string]int
}

func newUsersAPI(t testing.TB, users ...User) (*usersAPI, *httptest.Server) {
	t.Helper()

	api := &usersAPI{users: make(map[int]User), hits: make(map[string]int), nextID: 1}
	for _, u := range users {
		api.users[u.ID] = u
		if u.ID >= api.nextID {
			api.nextID = u.ID + 1
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /users", api.list)
	mux.HandleFunc("POST /users", api.create)
	mux.HandleFunc("GET /users/{id}", api.get)
	mux.HandleFunc("PATCH /users/{id}", api.update)
	mux.HandleFunc("DELETE /users/{id}", api.delete)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return api, srv
}

func (a *usersAPI) hitCount(route string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.hits[route]
}

func (a *usersAPI) track(r *http.Request) {
	a.hits[r.Pattern]++
}

func (a *usersAPI) list(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.track(r)

	users := make([]User, 0, len(a.users))
	for _, u := range a.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })

	writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{"users": users, "total": len(users)}})
}

func (a *usersAPI) get(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.track(r)

	u, ok := a.lookup(r)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "user not found"})
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (a *usersAPI) create(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.track(r)

	var u User
	if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
		return
	}
	u.ID = a.nextID
	a.nextID++
	a.users[u.ID] = u
	writeJSON(w, http.StatusCreated, u)
}

func (a *usersAPI) update(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.track(r)

	u, ok := a.lookup(r)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "user not found"})
		return
	}
	var patch map[string]string
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
		return
	}
	if name, ok := patch["name"]; ok {
		u.Name = name
	}
	if email, ok := patch["email"]; ok {
		u.Email = email
	}
	a.users[u.ID] = u
	writeJSON(w, http.StatusOK, u)
}

func (a *usersAPI) delete(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.track(r)

	u, ok := a.lookup(r)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "user not found"})
		return
	}
	delete(a.users, u.ID)
	w.WriteHeader(http.StatusNoContent)
}

func (a *usersAPI) lookup(r *http.Request) (User, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		return User{}, false
	}
	u, ok := a.users[id]
	return u, ok
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
