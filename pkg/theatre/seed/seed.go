// Package seed loads a YAML site description and creates the content and
// settings it describes through a theatre.Service.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"

	"github.com/google/uuid"
	"github.com/tendant/simple-theatre/pkg/theatre"
	"gopkg.in/yaml.v3"
)

// Site is the root of a seed file. Entries refer to each other by Key.
type Site struct {
	Settings    map[string]any `yaml:"settings"`
	Media       []Media        `yaml:"media"`
	Venues      []Venue        `yaml:"venues"`
	Bylines     []Byline       `yaml:"bylines"`
	Pages       []Page         `yaml:"pages"`
	Productions []Production   `yaml:"productions"`
	Menus       []Menu         `yaml:"menus"`
	Hero        *Hero          `yaml:"hero"`

	// dir resolves relative media paths
	dir string
}

type Media struct {
	Key     string `yaml:"key"`
	File    string `yaml:"file"`
	Title   string `yaml:"title"`
	Alt     string `yaml:"alt"`
	Backend string `yaml:"backend"`
}

type Venue struct {
	Key     string `yaml:"key"`
	Name    string `yaml:"name"`
	Address string `yaml:"address"`
}

type Byline struct {
	Key         string            `yaml:"key"`
	Name        string            `yaml:"name"`
	Bio         string            `yaml:"bio"`
	Image       string            `yaml:"image"`
	SocialLinks map[string]string `yaml:"social_links"`
}

type Page struct {
	Key     string              `yaml:"key"`
	Title   string              `yaml:"title"`
	Body    string              `yaml:"body"`
	Excerpt string              `yaml:"excerpt"`
	Status  string              `yaml:"status"`
	Meta    map[string][]string `yaml:"meta"`
	// Convert turns the page into a production after creation.
	Convert bool `yaml:"convert"`
}

type Production struct {
	Key              string   `yaml:"key"`
	Title            string   `yaml:"title"`
	Body             string   `yaml:"body"`
	Excerpt          string   `yaml:"excerpt"`
	Status           string   `yaml:"status"`
	PerformanceDates []string `yaml:"performance_dates"`
	Venue            string   `yaml:"venue"`
	Bylines          []string `yaml:"bylines"`
	Featured         bool     `yaml:"featured"`
	Image            string   `yaml:"image"`
	TicketLink       string   `yaml:"ticket_link"`
	Categories       []string `yaml:"categories"`
}

type Menu struct {
	Name     string     `yaml:"name"`
	Location string     `yaml:"location"`
	Items    []MenuItem `yaml:"items"`
}

type MenuItem struct {
	Key         string   `yaml:"key"`
	Title       string   `yaml:"title"`
	URL         string   `yaml:"url"`
	Object      string   `yaml:"object"`
	Parent      string   `yaml:"parent"`
	Target      string   `yaml:"target"`
	Classes     []string `yaml:"classes"`
	Description string   `yaml:"description"`
	Order       int      `yaml:"order"`
}

// Hero mirrors theatre.HeroSettings with media keys instead of ids.
type Hero struct {
	Type     string   `yaml:"type"`
	Image    string   `yaml:"image"`
	ImageAlt string   `yaml:"image_alt"`
	VideoURL string   `yaml:"video_url"`
	Carousel []string `yaml:"carousel"`
	Autoplay *bool    `yaml:"autoplay"`
	Interval int      `yaml:"interval"`
	Title    string   `yaml:"title"`
	Subtitle string   `yaml:"subtitle"`
	CTA      struct {
		Message string `yaml:"message"`
		Link    string `yaml:"link"`
	} `yaml:"cta"`
}

// LoadFile reads and parses a seed file
func LoadFile(path string) (*Site, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	site, err := Parse(data)
	if err != nil {
		return nil, err
	}
	site.dir = filepath.Dir(path)
	return site, nil
}

// Parse decodes a seed document
func Parse(data []byte) (*Site, error) {
	var site Site
	if err := yaml.Unmarshal(data, &site); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	return &site, nil
}

// Result counts what Apply created, keyed by item kind.
type Result struct {
	Created  map[theatre.Kind]int
	Settings int
	// IDs maps seed keys to the ids of the created items.
	IDs map[string]uuid.UUID
}

// Apply creates the site's content. ctx must carry a principal holding
// manage_options. Apply stops at the first error; content created before
// it stays in place.
func Apply(ctx context.Context, svc theatre.Service, settings theatre.SettingsStore, site *Site, logger *slog.Logger) (*Result, error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &applier{
		svc:    svc,
		logger: logger,
		result: &Result{Created: map[theatre.Kind]int{}, IDs: map[string]uuid.UUID{}},
	}

	for key, value := range site.Settings {
		if err := settings.Set(ctx, key, value); err != nil {
			return a.result, fmt.Errorf("setting %q: %w", key, err)
		}
		a.result.Settings++
	}

	steps := []func(context.Context, *Site) error{
		a.media, a.venues, a.bylines, a.pages, a.productions, a.menus, a.hero,
	}
	for _, step := range steps {
		if err := step(ctx, site); err != nil {
			return a.result, err
		}
	}
	return a.result, nil
}

type applier struct {
	svc    theatre.Service
	logger *slog.Logger
	result *Result
}

func (a *applier) remember(key string, kind theatre.Kind, id uuid.UUID) {
	a.result.Created[kind]++
	if key != "" {
		a.result.IDs[key] = id
	}
}

func (a *applier) ref(key string) (*uuid.UUID, error) {
	if key == "" {
		return nil, nil
	}
	id, ok := a.result.IDs[key]
	if !ok {
		return nil, fmt.Errorf("%w: unknown seed key %q", theatre.ErrInvalidInput, key)
	}
	return &id, nil
}

func (a *applier) refs(keys []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(keys))
	for _, k := range keys {
		id, err := a.ref(k)
		if err != nil {
			return nil, err
		}
		ids = append(ids, *id)
	}
	return ids, nil
}

func (a *applier) media(ctx context.Context, site *Site) error {
	for _, m := range site.Media {
		path := m.File
		if !filepath.IsAbs(path) {
			path = filepath.Join(site.dir, path)
		}
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("media %q: %w", m.Key, err)
		}
		view, err := a.svc.UploadMedia(ctx, theatre.UploadMediaRequest{
			Title:    m.Title,
			FileName: filepath.Base(path),
			Alt:      m.Alt,
			Backend:  m.Backend,
			Reader:   f,
		})
		f.Close()
		if err != nil {
			return fmt.Errorf("media %q: %w", m.Key, err)
		}
		id, err := uuid.Parse(view.ID)
		if err != nil {
			return fmt.Errorf("media %q: %w", m.Key, err)
		}
		a.remember(m.Key, theatre.KindMedia, id)
	}
	return nil
}

func (a *applier) venues(ctx context.Context, site *Site) error {
	for _, v := range site.Venues {
		summary, err := a.svc.CreateVenue(ctx, v.Name, v.Address)
		if err != nil {
			return fmt.Errorf("venue %q: %w", v.Name, err)
		}
		id, err := uuid.Parse(summary.ID)
		if err != nil {
			return fmt.Errorf("venue %q: %w", v.Name, err)
		}
		a.remember(v.Key, theatre.KindVenue, id)
	}
	return nil
}

func (a *applier) bylines(ctx context.Context, site *Site) error {
	for _, b := range site.Bylines {
		thumb, err := a.ref(b.Image)
		if err != nil {
			return fmt.Errorf("byline %q: %w", b.Name, err)
		}
		byline, err := a.svc.CreateByline(ctx, theatre.CreateBylineRequest{
			Name:        b.Name,
			Bio:         b.Bio,
			ThumbnailID: thumb,
			SocialLinks: b.SocialLinks,
		})
		if err != nil {
			return fmt.Errorf("byline %q: %w", b.Name, err)
		}
		a.remember(b.Key, theatre.KindByline, byline.ID)
	}
	return nil
}

func (a *applier) pages(ctx context.Context, site *Site) error {
	for _, p := range site.Pages {
		var meta theatre.Metadata
		for _, key := range slices.Sorted(maps.Keys(p.Meta)) {
			for _, v := range p.Meta[key] {
				meta = append(meta, theatre.MetaEntry{Key: key, Value: v})
			}
		}
		page, err := a.svc.CreatePage(ctx, theatre.CreatePageRequest{
			Title:    p.Title,
			Body:     p.Body,
			Excerpt:  p.Excerpt,
			Status:   theatre.Status(p.Status),
			Metadata: meta,
		})
		if err != nil {
			return fmt.Errorf("page %q: %w", p.Title, err)
		}
		if !p.Convert {
			a.remember(p.Key, theatre.KindPage, page.ID)
			continue
		}

		res, err := a.svc.ConvertPageToProduction(ctx, page.ID, true)
		if err != nil {
			return fmt.Errorf("converting page %q: %w", p.Title, err)
		}
		id, err := uuid.Parse(res.Production.ID)
		if err != nil {
			return fmt.Errorf("converting page %q: %w", p.Title, err)
		}
		a.remember(p.Key, theatre.KindProduction, id)
		a.logger.InfoContext(ctx, "converted seed page", "title", p.Title, "production_id", id)
	}
	return nil
}

func (a *applier) productions(ctx context.Context, site *Site) error {
	for _, p := range site.Productions {
		venue, err := a.ref(p.Venue)
		if err != nil {
			return fmt.Errorf("production %q: %w", p.Title, err)
		}
		bylines, err := a.refs(p.Bylines)
		if err != nil {
			return fmt.Errorf("production %q: %w", p.Title, err)
		}
		thumb, err := a.ref(p.Image)
		if err != nil {
			return fmt.Errorf("production %q: %w", p.Title, err)
		}
		prod, err := a.svc.CreateProduction(ctx, theatre.CreateProductionRequest{
			Title:            p.Title,
			Body:             p.Body,
			Excerpt:          p.Excerpt,
			Status:           theatre.Status(p.Status),
			PerformanceDates: p.PerformanceDates,
			VenueID:          venue,
			BylineIDs:        bylines,
			IsFeatured:       p.Featured,
			ThumbnailID:      thumb,
			TicketLink:       p.TicketLink,
			Categories:       p.Categories,
		})
		if err != nil {
			return fmt.Errorf("production %q: %w", p.Title, err)
		}
		a.remember(p.Key, theatre.KindProduction, prod.ID)
	}
	return nil
}

func (a *applier) menus(ctx context.Context, site *Site) error {
	for _, m := range site.Menus {
		menu, err := a.svc.CreateMenu(ctx, m.Name)
		if err != nil {
			return fmt.Errorf("menu %q: %w", m.Name, err)
		}
		a.result.Created[theatre.KindMenu]++

		for _, it := range m.Items {
			object, err := a.ref(it.Object)
			if err != nil {
				return fmt.Errorf("menu %q item %q: %w", m.Name, it.Title, err)
			}
			parent, err := a.ref(it.Parent)
			if err != nil {
				return fmt.Errorf("menu %q item %q: %w", m.Name, it.Title, err)
			}
			view, err := a.svc.AddMenuItem(ctx, theatre.AddMenuItemRequest{
				MenuID:      menu.ID,
				Title:       it.Title,
				URL:         it.URL,
				ObjectID:    object,
				ParentID:    parent,
				Target:      it.Target,
				Classes:     it.Classes,
				Description: it.Description,
				Order:       it.Order,
			})
			if err != nil {
				return fmt.Errorf("menu %q item %q: %w", m.Name, it.Title, err)
			}
			id, err := uuid.Parse(view.ID)
			if err != nil {
				return fmt.Errorf("menu %q item %q: %w", m.Name, it.Title, err)
			}
			a.remember(it.Key, theatre.KindMenuItem, id)
		}

		if m.Location != "" {
			if err := a.svc.AssignMenuLocation(ctx, m.Location, menu.ID); err != nil {
				return fmt.Errorf("menu %q: %w", m.Name, err)
			}
		}
	}
	return nil
}

func (a *applier) hero(ctx context.Context, site *Site) error {
	h := site.Hero
	if h == nil {
		return nil
	}
	image, err := a.ref(h.Image)
	if err != nil {
		return fmt.Errorf("hero: %w", err)
	}
	carousel, err := a.refs(h.Carousel)
	if err != nil {
		return fmt.Errorf("hero: %w", err)
	}
	err = a.svc.UpdateHeroSettings(ctx, theatre.HeroSettings{
		Mode:             h.Type,
		ImageID:          image,
		ImageAlt:         h.ImageAlt,
		VideoURL:         h.VideoURL,
		CarouselImageIDs: carousel,
		CarouselAutoplay: h.Autoplay,
		CarouselInterval: h.Interval,
		Title:            h.Title,
		Subtitle:         h.Subtitle,
		CTAMessage:       h.CTA.Message,
		CTALink:          h.CTA.Link,
	})
	if err != nil {
		return fmt.Errorf("hero: %w", err)
	}
	return nil
}
