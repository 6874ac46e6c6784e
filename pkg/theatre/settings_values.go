package theatre

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"
)

// Setting keys read by the service.
const (
	SettingMenuLocations  = "nav_menu_locations"
	SettingHeroMode       = "hero_media_type"
	SettingHeroImage      = "hero_image"
	SettingHeroImageAlt   = "hero_image_alt"
	SettingHeroVideoURL   = "hero_video_url"
	SettingHeroCarousel   = "hero_carousel_images"
	SettingHeroAutoplay   = "hero_carousel_autoplay"
	SettingHeroInterval   = "hero_carousel_interval"
	SettingHeroTitle      = "hero_title"
	SettingHeroSubtitle   = "hero_subtitle"
	SettingHeroCTAMessage = "hero_cta_message"
	SettingHeroCTALink    = "hero_cta_link"
)

// Settings values arrive from memory, JSON (redis) or YAML (seed files), so
// the helpers below accept every shape those decoders produce.

func (s *service) setting(ctx context.Context, key string, def any) (any, error) {
	v, err := s.settings.Get(ctx, key, def)
	if err != nil {
		return nil, fmt.Errorf("read setting %s: %w", key, err)
	}
	return v, nil
}

func asString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

func asBool(v any, def bool) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		if b, err := strconv.ParseBool(t); err == nil {
			return b
		}
	case int:
		return t != 0
	case int64:
		return t != 0
	case float64:
		return t != 0
	}
	return def
}

func asInt(v any, def int) int {
	switch t := v.(type) {
	case int:
		return t
	case int64:
		return int(t)
	case float64:
		return int(t)
	case string:
		if n, err := strconv.Atoi(t); err == nil {
			return n
		}
	}
	return def
}

func asStringSlice(v any) []string {
	switch t := v.(type) {
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			out = append(out, asString(e))
		}
		return out
	case []uuid.UUID:
		out := make([]string, 0, len(t))
		for _, id := range t {
			out = append(out, id.String())
		}
		return out
	case string:
		if t == "" {
			return nil
		}
		return ParseDateList(t)
	}
	return nil
}

func asStringMap(v any) map[string]string {
	out := make(map[string]string)
	switch t := v.(type) {
	case map[string]string:
		for k, val := range t {
			out[k] = val
		}
	case map[string]any:
		for k, val := range t {
			out[k] = asString(val)
		}
	}
	return out
}

func asUUID(v any) (uuid.UUID, bool) {
	switch t := v.(type) {
	case uuid.UUID:
		return t, t != uuid.Nil
	case string:
		id, err := uuid.Parse(t)
		return id, err == nil && id != uuid.Nil
	}
	return uuid.Nil, false
}
