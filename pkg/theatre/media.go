package theatre

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"

	"github.com/google/uuid"
)

var fileNameReplacer = strings.NewReplacer(
	"/", "_", "\\", "_", ":", "_", "*", "_", "?", "_",
	"\"", "_", "<", "_", ">", "_", "|", "_", " ", "_",
)

// MediaObjectKey returns the blob key a media item's bytes are stored
// under, sharded git-style on the id: media/objects/ab/cdef..._name.png
func MediaObjectKey(id uuid.UUID, fileName string) string {
	hex := strings.ReplaceAll(id.String(), "-", "")
	name := hex[2:]
	if fileName != "" {
		name += "_" + fileNameReplacer.Replace(fileName)
	}
	return fmt.Sprintf("media/objects/%s/%s", hex[:2], name)
}

func mediaFromItem(item *Item, meta Metadata) *Media {
	m := &Media{ID: item.ID, Title: item.Title}
	m.FileName, _ = meta.Get(MetaMediaFileName)
	m.MimeType, _ = meta.Get(MetaMediaMimeType)
	m.Alt, _ = meta.Get(MetaMediaAlt)
	m.ObjectKey, _ = meta.Get(MetaMediaObjectKey)
	m.Backend, _ = meta.Get(MetaMediaBackend)
	return m
}

func (s *service) UploadMedia(ctx context.Context, req UploadMediaRequest) (*MediaView, error) {
	if err := Authorize(ctx, CapEditPosts); err != nil {
		return nil, err
	}
	if req.Reader == nil {
		return nil, invalid("file", "file content is required")
	}
	fileName := path.Base(strings.ReplaceAll(strings.TrimSpace(req.FileName), "\\", "/"))
	if fileName == "" || fileName == "." || fileName == "/" {
		return nil, invalid("file_name", "file name is required")
	}
	backend := req.Backend
	if backend == "" {
		backend = s.defaultBackend
	}
	store, ok := s.blobStores[backend]
	if !ok {
		return nil, invalid("backend", fmt.Sprintf("storage backend %q is not configured", backend))
	}
	mimeType := req.MimeType
	if mimeType == "" {
		mimeType = mime.TypeByExtension(path.Ext(fileName))
	}
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = strings.TrimSuffix(fileName, path.Ext(fileName))
	}

	id := uuid.New()
	objectKey := MediaObjectKey(id, fileName)
	meta := Metadata{
		{Key: MetaMediaFileName, Value: fileName},
		{Key: MetaMediaMimeType, Value: mimeType},
		{Key: MetaMediaAlt, Value: req.Alt},
		{Key: MetaMediaObjectKey, Value: objectKey},
		{Key: MetaMediaBackend, Value: backend},
	}
	p, _ := PrincipalFromContext(ctx)
	item := &Item{
		ID:            id,
		Kind:          KindMedia,
		Title:         title,
		Status:        StatusPublished,
		AuthorID:      p.UserID,
		CommentStatus: DiscussionClosed,
		PingStatus:    DiscussionClosed,
	}
	if err := s.createItem(ctx, item, meta); err != nil {
		return nil, err
	}

	if err := store.Upload(ctx, objectKey, req.Reader, mimeType); err != nil {
		if derr := s.repository.DeleteItem(ctx, id); derr != nil {
			s.logger.ErrorContext(ctx, "failed to remove media after upload error", "id", id, "error", derr)
		}
		return nil, &ItemError{ItemID: id, Kind: KindMedia, Op: "upload", Err: err}
	}

	m := mediaFromItem(item, meta)
	return &MediaView{
		ID:       m.ID.String(),
		Title:    m.Title,
		FileName: m.FileName,
		MimeType: m.MimeType,
		Alt:      m.Alt,
		URL:      s.mediaURL(ctx, m),
	}, nil
}

// OpenMedia returns a reader over the stored bytes. The caller closes it.
func (s *service) OpenMedia(ctx context.Context, id uuid.UUID) (io.ReadCloser, *Media, error) {
	item, err := s.getItemOfKind(ctx, id, KindMedia)
	if err != nil {
		return nil, nil, err
	}
	meta, err := s.repository.GetMeta(ctx, id)
	if err != nil {
		return nil, nil, &ItemError{ItemID: id, Kind: KindMedia, Op: "get meta", Err: err}
	}
	m := mediaFromItem(item, meta)
	store, ok := s.blobStores[m.Backend]
	if !ok {
		return nil, nil, &ItemError{ItemID: id, Kind: KindMedia, Op: "open",
			Err: fmt.Errorf("storage backend %q is not configured", m.Backend)}
	}
	rc, err := store.Download(ctx, m.ObjectKey)
	if err != nil {
		return nil, nil, &ItemError{ItemID: id, Kind: KindMedia, Op: "open", Err: err}
	}
	return rc, m, nil
}

// resolveMedia resolves a media reference and its URL. A dangling reference
// yields a nil Media and no error.
func (s *service) resolveMedia(ctx context.Context, id uuid.UUID) (*Media, string, error) {
	item, err := s.lookupItem(ctx, id, KindMedia)
	if err != nil || item == nil {
		return nil, "", err
	}
	meta, err := s.repository.GetMeta(ctx, id)
	if err != nil {
		return nil, "", &ItemError{ItemID: id, Kind: KindMedia, Op: "get meta", Err: err}
	}
	m := mediaFromItem(item, meta)
	return m, s.mediaURL(ctx, m), nil
}

// mediaURL returns the public URL of m, or "" when none can be built.
func (s *service) mediaURL(ctx context.Context, m *Media) string {
	if s.urlResolver != nil {
		url, err := s.urlResolver.MediaURL(ctx, m.ID, m.ObjectKey, m.Backend)
		if err == nil {
			return url
		}
		s.logger.WarnContext(ctx, "media url resolution failed", "id", m.ID, "error", err)
	}
	store, ok := s.blobStores[m.Backend]
	if !ok {
		return ""
	}
	url, err := store.GetPreviewURL(ctx, m.ObjectKey)
	if err != nil {
		s.logger.WarnContext(ctx, "media preview url failed", "id", m.ID, "error", err)
		return ""
	}
	return url
}
