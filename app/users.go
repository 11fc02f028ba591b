package app

import (
	"net/http"
	"slices"
	"strconv"
	"sync"

	"github.com/km-arc/go-sofaboot/framework/validation"
)

// UserServiceContract is the contract the users service is published under.
const UserServiceContract = "demo.UserService"

// User is a demo record.
type User struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

type userInput struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

var userRules = validation.Rules{
	"name": "required|min:2|max:100",
	"role": "in:admin,member",
}

// UsersController keeps users in memory and serves them as a REST
// resource.
type UsersController struct {
	Controller

	mu     sync.RWMutex
	nextID int
	users  map[int]User
}

// NewUsersController creates a controller seeded with users.
func NewUsersController(seed ...User) *UsersController {
	c := &UsersController{users: make(map[int]User), nextID: 1}
	for _, u := range seed {
		c.users[u.ID] = u
		c.nextID = max(c.nextID, u.ID+1)
	}
	return c
}

// All returns the users sorted by id.
func (c *UsersController) All() []User {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]User, 0, len(c.users))
	for _, u := range c.users {
		out = append(out, u)
	}
	slices.SortFunc(out, func(a, b User) int { return a.ID - b.ID })
	return out
}

// GET /
func (c *UsersController) Index(w http.ResponseWriter, r *http.Request) {
	c.Response(w).Success(c.All())
}

// POST /
func (c *UsersController) Store(w http.ResponseWriter, r *http.Request) {
	in, ok := c.input(w, r)
	if !ok {
		return
	}

	c.mu.Lock()
	u := User{ID: c.nextID, Name: in.Name, Role: roleOrDefault(in.Role)}
	c.users[u.ID] = u
	c.nextID++
	c.mu.Unlock()

	c.Response(w).Created(u)
}

// GET /{id}
func (c *UsersController) Show(w http.ResponseWriter, r *http.Request) {
	id, ok := c.id(w, r)
	if !ok {
		return
	}
	c.mu.RLock()
	u, found := c.users[id]
	c.mu.RUnlock()
	if !found {
		c.Response(w).NotFound("User not found.")
		return
	}
	c.Response(w).Success(u)
}

// PUT|PATCH /{id}
func (c *UsersController) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := c.id(w, r)
	if !ok {
		return
	}
	in, ok := c.input(w, r)
	if !ok {
		return
	}

	c.mu.Lock()
	u, found := c.users[id]
	if found {
		u.Name = in.Name
		if in.Role != "" {
			u.Role = in.Role
		}
		c.users[id] = u
	}
	c.mu.Unlock()

	if !found {
		c.Response(w).NotFound("User not found.")
		return
	}
	c.Response(w).Success(u)
}

// DELETE /{id}
func (c *UsersController) Destroy(w http.ResponseWriter, r *http.Request) {
	id, ok := c.id(w, r)
	if !ok {
		return
	}
	c.mu.Lock()
	_, found := c.users[id]
	delete(c.users, id)
	c.mu.Unlock()

	if !found {
		c.Response(w).NotFound("User not found.")
		return
	}
	c.Response(w).NoContent()
}

func (c *UsersController) id(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(c.Request(r).RouteParam("id"))
	if err != nil {
		c.Response(w).NotFound("User not found.")
		return 0, false
	}
	return id, true
}

func (c *UsersController) input(w http.ResponseWriter, r *http.Request) (userInput, bool) {
	var in userInput
	if err := c.Request(r).Bind(&in); err != nil {
		c.Response(w).Error(http.StatusBadRequest, err.Error())
		return in, false
	}
	v := validation.Make(map[string]string{"name": in.Name, "role": in.Role}, userRules)
	if v.Fails() {
		c.Response(w).ValidationError(v.Errors())
		return in, false
	}
	return in, true
}

func roleOrDefault(role string) string {
	if role == "" {
		return "member"
	}
	return role
}
