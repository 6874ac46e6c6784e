package theatre

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
)

const customLinkLabel = "Custom Link"

func (s *service) CreateMenu(ctx context.Context, name string) (*Menu, error) {
	if err := Authorize(ctx, CapManageOptions); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("name", "menu name is required")
	}
	item := &Item{Kind: KindMenu, Title: name, Status: StatusPublished}
	if err := s.createItem(ctx, item, nil); err != nil {
		return nil, err
	}
	return &Menu{ID: item.ID, Name: item.Title, Slug: item.Slug}, nil
}

func (s *service) AddMenuItem(ctx context.Context, req AddMenuItemRequest) (*MenuItemView, error) {
	if err := Authorize(ctx, CapManageOptions); err != nil {
		return nil, err
	}
	menu, err := s.getItemOfKind(ctx, req.MenuID, KindMenu)
	if err != nil {
		return nil, err
	}
	url := strings.TrimSpace(req.URL)
	if url == "" && req.ObjectID == nil {
		return nil, invalid("url", "either url or object_id is required")
	}
	if req.ObjectID == nil && strings.TrimSpace(req.Title) == "" {
		return nil, invalid("title", "custom links need a title")
	}

	meta := Metadata{{Key: MetaMenuItemMenu, Value: menu.ID.String()}}
	if req.ObjectID != nil {
		object, err := s.repository.GetItem(ctx, *req.ObjectID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil, invalid("object_id", "referenced item does not exist")
			}
			return nil, err
		}
		meta = append(meta,
			MetaEntry{Key: MetaMenuItemType, Value: MenuItemPostType},
			MetaEntry{Key: MetaMenuItemObject, Value: string(object.Kind)},
			MetaEntry{Key: MetaMenuItemObjectID, Value: object.ID.String()},
		)
	} else {
		meta = append(meta,
			MetaEntry{Key: MetaMenuItemType, Value: MenuItemCustom},
			MetaEntry{Key: MetaMenuItemObject, Value: MenuItemCustom},
		)
	}
	if url != "" {
		meta = append(meta, MetaEntry{Key: MetaMenuItemURL, Value: url})
	}
	if req.ParentID != nil {
		parent, err := s.lookupItem(ctx, *req.ParentID, KindMenuItem)
		if err != nil {
			return nil, err
		}
		if parent == nil {
			return nil, invalid("parent", "parent menu item does not exist")
		}
		parentMeta, err := s.repository.GetMeta(ctx, parent.ID)
		if err != nil {
			return nil, err
		}
		if owner, _ := parentMeta.Get(MetaMenuItemMenu); owner != menu.ID.String() {
			return nil, invalid("parent", "parent belongs to another menu")
		}
		meta = append(meta, MetaEntry{Key: MetaMenuItemParent, Value: parent.ID.String()})
	}
	if req.Target != "" {
		meta = append(meta, MetaEntry{Key: MetaMenuItemTarget, Value: req.Target})
	}
	meta = append(meta, MetaEntry{Key: MetaMenuItemClasses, Value: encodeStrings(req.Classes)})

	order := req.Order
	if order <= 0 {
		existing, err := s.menuItems(ctx, menu.ID)
		if err != nil {
			return nil, err
		}
		order = len(existing) + 1
	}

	item := &Item{
		Kind:      KindMenuItem,
		Title:     strings.TrimSpace(req.Title),
		Body:      req.Description,
		Status:    StatusPublished,
		MenuOrder: order,
	}
	if err := s.createItem(ctx, item, meta); err != nil {
		return nil, err
	}
	view, err := s.menuItemView(ctx, item, meta)
	if err != nil {
		return nil, err
	}
	if view == nil {
		return nil, fmt.Errorf("menu item %s references a missing item", item.ID)
	}
	return view, nil
}

func (s *service) AssignMenuLocation(ctx context.Context, location string, menuID uuid.UUID) error {
	if err := Authorize(ctx, CapManageOptions); err != nil {
		return err
	}
	location = strings.TrimSpace(location)
	if location == "" {
		return invalid("location", "location is required")
	}
	if _, err := s.getItemOfKind(ctx, menuID, KindMenu); err != nil {
		return err
	}
	locations, err := s.menuLocations(ctx)
	if err != nil {
		return err
	}
	locations[location] = menuID.String()
	return s.settings.Set(ctx, SettingMenuLocations, locations)
}

func (s *service) GetMenuByLocation(ctx context.Context, location string) (*MenuView, error) {
	locations, err := s.menuLocations(ctx)
	if err != nil {
		return nil, err
	}
	view, err := s.menuAt(ctx, locations[location])
	if err != nil {
		return nil, err
	}
	if view == nil {
		return nil, fmt.Errorf("menu location %q: %w", location, ErrNotFound)
	}
	return view, nil
}

// GetMenus returns every location with an assigned, existing menu.
func (s *service) GetMenus(ctx context.Context) (map[string]*MenuView, error) {
	locations, err := s.menuLocations(ctx)
	if err != nil {
		return nil, err
	}
	menus := make(map[string]*MenuView, len(locations))
	for location, ref := range locations {
		view, err := s.menuAt(ctx, ref)
		if err != nil {
			return nil, err
		}
		if view != nil {
			menus[location] = view
		}
	}
	return menus, nil
}

func (s *service) menuLocations(ctx context.Context) (map[string]string, error) {
	v, err := s.setting(ctx, SettingMenuLocations, nil)
	if err != nil {
		return nil, err
	}
	return asStringMap(v), nil
}

// menuAt resolves a menu reference taken from the location map.
func (s *service) menuAt(ctx context.Context, ref string) (*MenuView, error) {
	id, ok := asUUID(ref)
	if !ok {
		return nil, nil
	}
	menu, err := s.lookupItem(ctx, id, KindMenu)
	if err != nil || menu == nil {
		return nil, err
	}
	items, err := s.menuItems(ctx, menu.ID)
	if err != nil {
		return nil, err
	}

	view := &MenuView{ID: menu.ID.String(), Name: menu.Title, Items: []MenuItemView{}}
	for _, item := range items {
		meta, err := s.repository.GetMeta(ctx, item.ID)
		if err != nil {
			return nil, err
		}
		iv, err := s.menuItemView(ctx, item, meta)
		if err != nil {
			return nil, err
		}
		if iv != nil {
			view.Items = append(view.Items, *iv)
		}
	}
	return view, nil
}

// menuItems returns the entries of a menu ordered by menu order.
func (s *service) menuItems(ctx context.Context, menuID uuid.UUID) ([]*Item, error) {
	items, err := s.repository.ListItems(ctx, ItemQuery{
		Kinds:     []Kind{KindMenuItem},
		MetaKey:   MetaMenuItemMenu,
		MetaValue: menuID.String(),
	})
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(items, func(a, b *Item) int {
		if a.MenuOrder != b.MenuOrder {
			return a.MenuOrder - b.MenuOrder
		}
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return items, nil
}

// menuItemView builds the view of a menu entry. Entries whose linked item
// no longer exists are reported as nil.
func (s *service) menuItemView(ctx context.Context, item *Item, meta Metadata) (*MenuItemView, error) {
	view := &MenuItemView{
		ID:          item.ID.String(),
		Title:       item.Title,
		Description: item.Body,
		Order:       item.MenuOrder,
		Classes:     []string{},
	}
	view.URL, _ = meta.Get(MetaMenuItemURL)
	view.Target, _ = meta.Get(MetaMenuItemTarget)
	view.Parent, _ = meta.Get(MetaMenuItemParent)
	view.Type, _ = meta.Get(MetaMenuItemType)
	view.Object, _ = meta.Get(MetaMenuItemObject)
	view.ObjectID, _ = meta.Get(MetaMenuItemObjectID)
	if v, ok := meta.Get(MetaMenuItemClasses); ok {
		view.Classes = decodeStrings(v)
	}

	if view.Type != MenuItemPostType {
		view.Type = MenuItemCustom
		view.TypeLabel = customLinkLabel
		view.ObjectID = view.ID
		return view, nil
	}

	objectID, err := uuid.Parse(view.ObjectID)
	if err != nil {
		return nil, nil
	}
	object, err := s.lookupItem(ctx, objectID, Kind(view.Object))
	if err != nil || object == nil {
		return nil, err
	}
	view.TypeLabel = object.Kind.Label()
	if view.Title == "" {
		view.Title = object.Title
	}
	if view.URL == "" {
		view.URL = s.permalink(object)
	}
	return view, nil
}
