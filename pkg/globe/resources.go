package globe

import (
	"errors"
	"fmt"

	"adisglobe/pkg/render"
)

// resourceSet tracks device allocations so they can be released together.
type resourceSet struct {
	dev render.Device
	ids []render.ResourceID
}

func (r *resourceSet) geometry(desc render.GeometryDesc) (render.ResourceID, error) {
	id, err := r.dev.CreateGeometry(desc)
	if err != nil {
		return 0, fmt.Errorf("create geometry: %w", err)
	}
	r.ids = append(r.ids, id)
	return id, nil
}

func (r *resourceSet) material(desc render.MaterialDesc) (render.ResourceID, error) {
	id, err := r.dev.CreateMaterial(desc)
	if err != nil {
		return 0, fmt.Errorf("create material: %w", err)
	}
	r.ids = append(r.ids, id)
	return id, nil
}

func (r *resourceSet) texture(desc render.TextureDesc) (render.ResourceID, error) {
	id, err := r.dev.CreateTexture(desc)
	if err != nil {
		return 0, fmt.Errorf("create texture: %w", err)
	}
	r.ids = append(r.ids, id)
	return id, nil
}

// releaseAll releases in reverse allocation order and empties the set even
// when individual releases fail.
func (r *resourceSet) releaseAll() error {
	var errs []error
	for i := len(r.ids) - 1; i >= 0; i-- {
		if err := r.dev.Release(r.ids[i]); err != nil {
			errs = append(errs, err)
		}
	}
	r.ids = r.ids[:0]
	return errors.Join(errs...)
}

func (r *resourceSet) len() int { return len(r.ids) }
