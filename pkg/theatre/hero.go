package theatre

import (
	"context"
	"strings"
)

// Carousel timing in milliseconds.
const (
	DefaultCarouselInterval = 5000
	MinCarouselInterval     = 1000
)

func validHeroMode(mode string) bool {
	switch mode {
	case HeroModeImage, HeroModeVideo, HeroModeCarousel:
		return true
	}
	return false
}

// GetHeroMedia projects the hero settings. Missing or dangling media render
// as empty values, never as errors.
func (s *service) GetHeroMedia(ctx context.Context) (*HeroView, error) {
	read := func(key string, def any) any {
		v, err := s.setting(ctx, key, def)
		if err != nil {
			s.logger.WarnContext(ctx, "hero setting unavailable", "key", key, "error", err)
			return def
		}
		return v
	}

	mode := asString(read(SettingHeroMode, HeroModeImage))
	if !validHeroMode(mode) {
		mode = HeroModeImage
	}
	view := &HeroView{
		Type:     mode,
		Title:    asString(read(SettingHeroTitle, "")),
		Subtitle: asString(read(SettingHeroSubtitle, "")),
	}

	switch mode {
	case HeroModeVideo:
		view.Content = HeroVideo{URL: asString(read(SettingHeroVideoURL, ""))}
	case HeroModeCarousel:
		carousel := HeroCarousel{
			Images:   []HeroImage{},
			Autoplay: asBool(read(SettingHeroAutoplay, true), true),
			Interval: carouselInterval(asInt(read(SettingHeroInterval, DefaultCarouselInterval), DefaultCarouselInterval)),
		}
		for _, ref := range asStringSlice(read(SettingHeroCarousel, nil)) {
			img, err := s.heroImage(ctx, ref, "")
			if err != nil {
				return nil, err
			}
			if img != nil {
				carousel.Images = append(carousel.Images, *img)
			}
		}
		view.Content = carousel
	default:
		alt := asString(read(SettingHeroImageAlt, ""))
		img, err := s.heroImage(ctx, asString(read(SettingHeroImage, "")), alt)
		if err != nil {
			return nil, err
		}
		if img == nil {
			img = &HeroImage{URL: "", Alt: alt}
		}
		view.Content = *img
	}

	message := asString(read(SettingHeroCTAMessage, ""))
	link := asString(read(SettingHeroCTALink, ""))
	if message != "" || link != "" {
		view.CTA = &CallToAction{Message: message, Link: link}
	}
	return view, nil
}

func carouselInterval(ms int) int {
	if ms <= 0 {
		return DefaultCarouselInterval
	}
	return max(ms, MinCarouselInterval)
}

// heroImage resolves a media reference; nil means it could not be resolved.
func (s *service) heroImage(ctx context.Context, ref, alt string) (*HeroImage, error) {
	id, ok := asUUID(strings.TrimSpace(ref))
	if !ok {
		return nil, nil
	}
	media, url, err := s.resolveMedia(ctx, id)
	if err != nil || media == nil {
		return nil, err
	}
	if alt == "" {
		alt = media.Alt
	}
	if alt == "" {
		alt = media.Title
	}
	return &HeroImage{URL: url, Alt: alt}, nil
}

func (s *service) UpdateHeroSettings(ctx context.Context, settings HeroSettings) error {
	if err := Authorize(ctx, CapManageOptions); err != nil {
		return err
	}
	mode := strings.TrimSpace(settings.Mode)
	if mode == "" {
		mode = HeroModeImage
	}
	if !validHeroMode(mode) {
		return invalid("type", "hero type must be image, video or carousel")
	}
	if settings.CarouselInterval < 0 {
		return invalid("carousel_interval", "interval must not be negative")
	}

	image := ""
	if settings.ImageID != nil {
		image = settings.ImageID.String()
	}
	carousel := make([]string, 0, len(settings.CarouselImageIDs))
	for _, id := range settings.CarouselImageIDs {
		carousel = append(carousel, id.String())
	}
	autoplay := true
	if settings.CarouselAutoplay != nil {
		autoplay = *settings.CarouselAutoplay
	}
	interval := settings.CarouselInterval
	if interval == 0 {
		interval = DefaultCarouselInterval
	}

	values := []struct {
		key   string
		value any
	}{
		{SettingHeroMode, mode},
		{SettingHeroImage, image},
		{SettingHeroImageAlt, settings.ImageAlt},
		{SettingHeroVideoURL, strings.TrimSpace(settings.VideoURL)},
		{SettingHeroCarousel, carousel},
		{SettingHeroAutoplay, autoplay},
		{SettingHeroInterval, carouselInterval(interval)},
		{SettingHeroTitle, settings.Title},
		{SettingHeroSubtitle, settings.Subtitle},
		{SettingHeroCTAMessage, settings.CTAMessage},
		{SettingHeroCTALink, strings.TrimSpace(settings.CTALink)},
	}
	for _, v := range values {
		if err := s.settings.Set(ctx, v.key, v.value); err != nil {
			return err
		}
	}
	return nil
}
