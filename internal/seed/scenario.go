package seed

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"murmur/internal/models"
	"murmur/internal/validation"

	"gopkg.in/yaml.v3"
)

// Scenario is a hand-written data set loaded from YAML. Users are referred
// to by username everywhere else in the file.
//
//	users:
//	  - username: ada
//	    name: Ada Lovelace
//	follows:
//	  - {from: grace, to: ada}
//	posts:
//	  - author: ada
//	    content: Notes on the engine
//	    comments:
//	      - {author: grace, content: Lovely}
//	    liked_by: [grace]
type Scenario struct {
	Users   []ScenarioUser   `yaml:"users"`
	Follows []ScenarioFollow `yaml:"follows"`
	Posts   []ScenarioPost   `yaml:"posts"`
}

type ScenarioUser struct {
	Username string `yaml:"username"`
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`
	Bio      string `yaml:"bio"`
	Location string `yaml:"location"`
	Website  string `yaml:"website"`
	// ExternalID lets a developer sign tokens for a known account.
	ExternalID string `yaml:"external_id"`
}

type ScenarioFollow struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

type ScenarioPost struct {
	Author   string            `yaml:"author"`
	Content  string            `yaml:"content"`
	Image    string            `yaml:"image"`
	Comments []ScenarioComment `yaml:"comments"`
	LikedBy  []string          `yaml:"liked_by"`
}

type ScenarioComment struct {
	Author  string `yaml:"author"`
	Content string `yaml:"content"`
}

// LoadScenario reads and validates a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	return ParseScenario(raw)
}

// ParseScenario decodes raw YAML and checks that every reference names a
// declared user.
func ParseScenario(raw []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(raw, &sc); err != nil {
		return nil, fmt.Errorf("decode scenario: %w", err)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Validate reports every problem in sc at once.
func (sc *Scenario) Validate() error {
	var errs []error
	declared := make(map[string]bool, len(sc.Users))
	for i, u := range sc.Users {
		h := validation.NormalizeHandle(u.Username)
		switch {
		case h == "" || h != u.Username:
			errs = append(errs, fmt.Errorf("users[%d]: invalid username %q", i, u.Username))
		case declared[h]:
			errs = append(errs, fmt.Errorf("users[%d]: duplicate username %q", i, u.Username))
		}
		declared[u.Username] = true
	}

	ref := func(where, name string) {
		if !declared[name] {
			errs = append(errs, fmt.Errorf("%s: unknown user %q", where, name))
		}
	}
	edges := make(map[ScenarioFollow]bool, len(sc.Follows))
	for i, f := range sc.Follows {
		ref(fmt.Sprintf("follows[%d].from", i), f.From)
		ref(fmt.Sprintf("follows[%d].to", i), f.To)
		switch {
		case f.From == f.To:
			errs = append(errs, fmt.Errorf("follows[%d]: %q cannot follow themselves", i, f.From))
		case edges[f]:
			errs = append(errs, fmt.Errorf("follows[%d]: duplicate follow %s -> %s", i, f.From, f.To))
		}
		edges[f] = true
	}
	for i, p := range sc.Posts {
		ref(fmt.Sprintf("posts[%d].author", i), p.Author)
		if strings.TrimSpace(p.Content) == "" && p.Image == "" {
			errs = append(errs, fmt.Errorf("posts[%d]: content or image is required", i))
		}
		for j, c := range p.Comments {
			ref(fmt.Sprintf("posts[%d].comments[%d].author", i, j), c.Author)
			if strings.TrimSpace(c.Content) == "" {
				errs = append(errs, fmt.Errorf("posts[%d].comments[%d]: content is required", i, j))
			}
		}
		liked := make(map[string]bool, len(p.LikedBy))
		for j, name := range p.LikedBy {
			ref(fmt.Sprintf("posts[%d].liked_by[%d]", i, j), name)
			if liked[name] {
				errs = append(errs, fmt.Errorf("posts[%d].liked_by[%d]: %q listed twice", i, j, name))
			}
			liked[name] = true
		}
	}
	return errors.Join(errs...)
}

// ApplyScenario writes sc and returns the created users by username.
func (s *Seeder) ApplyScenario(sc *Scenario) (map[string]*models.User, error) {
	if err := sc.Validate(); err != nil {
		return nil, err
	}

	users := make(map[string]*models.User, len(sc.Users))
	for _, su := range sc.Users {
		u, err := s.factory.CreateUser(func(u *models.User) {
			u.Username = su.Username
			u.Email = su.Username + "@example.com"
			if su.Name != "" {
				u.Name = su.Name
			}
			if su.Email != "" {
				u.Email = su.Email
			}
			if su.Bio != "" {
				u.Bio = su.Bio
			}
			if su.Location != "" {
				u.Location = su.Location
			}
			if su.Website != "" {
				u.Website = su.Website
			}
			if su.ExternalID != "" {
				u.ExternalID = su.ExternalID
			}
		})
		if err != nil {
			return nil, err
		}
		users[su.Username] = u
	}

	for _, f := range sc.Follows {
		if err := s.factory.CreateFollow(users[f.From], users[f.To]); err != nil {
			return nil, err
		}
	}

	for _, sp := range sc.Posts {
		post, err := s.factory.CreatePost(users[sp.Author], func(p *models.Post) {
			p.Content = validation.SanitizeText(sp.Content)
			p.Image = sp.Image
		})
		if err != nil {
			return nil, err
		}
		for _, cm := range sp.Comments {
			content := validation.SanitizeText(cm.Content)
			if _, err := s.factory.CreateComment(users[cm.Author], post, func(c *models.Comment) {
				c.Content = content
			}); err != nil {
				return nil, err
			}
		}
		for _, name := range sp.LikedBy {
			if err := s.factory.CreateLike(users[name], post); err != nil {
				return nil, err
			}
		}
	}
	return users, nil
}
