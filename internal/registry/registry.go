package registry

import (
	"errors"
	"fmt"

	"mini-voxel/internal/world"
	"mini-voxel/pkg/blockmodel"

	"github.com/go-gl/mathgl/mgl32"
)

// ErrUnknownBlock is returned for ids and names the registry does not hold.
var ErrUnknownBlock = errors.New("unknown block")

// Fragment is the geometry one block contributes for one face, in unit block
// space.
type Fragment struct {
	Vertices []blockmodel.Vertex
}

// Block describes how a block id looks and behaves.
type Block struct {
	ID          world.BlockID
	Name        string
	Opaque      bool
	Transparent bool
	// CullSelf hides faces between two blocks of this id.
	CullSelf  bool
	Faces     [6]Fragment // indexed by world.BlockFace
	Collision []world.AABB
}

// Definition is the input for one registry entry.
type Definition struct {
	Name        string
	Model       *blockmodel.Model // nil for air
	Transparent bool
	CullSelf    bool
	// Solid blocks get collision boxes from their model elements.
	Solid bool
}

// Registry maps block ids to descriptors. It is built once and never mutated,
// so it can be shared by every worker without locking.
type Registry struct {
	blocks []*Block
	byName map[string]world.BlockID
	water  world.BlockID
}

// New assigns ids in definition order. The first definition must be air.
// waterName names the single transparent id the mesher routes to the water
// layer; it may be empty.
func New(waterName string, defs ...Definition) (*Registry, error) {
	if len(defs) == 0 || defs[0].Model != nil {
		return nil, errors.New("registry: first definition must be air with no model")
	}
	r := &Registry{byName: make(map[string]world.BlockID, len(defs))}
	for i, def := range defs {
		if _, dup := r.byName[def.Name]; dup {
			return nil, fmt.Errorf("registry: duplicate block %q", def.Name)
		}
		id := world.BlockID(i)
		r.blocks = append(r.blocks, build(id, def))
		r.byName[def.Name] = id
	}
	if waterName != "" {
		id, err := r.IndexOf(waterName)
		if err != nil {
			return nil, fmt.Errorf("registry: water block: %w", err)
		}
		if !r.blocks[id].Transparent {
			return nil, fmt.Errorf("registry: water block %q must be transparent", waterName)
		}
		r.water = id
	}
	return r, nil
}

func build(id world.BlockID, def Definition) *Block {
	b := &Block{
		ID:          id,
		Name:        def.Name,
		Transparent: def.Transparent,
		CullSelf:    def.CullSelf,
	}
	if def.Model == nil {
		b.Transparent = true
		return b
	}
	for _, face := range world.Faces {
		b.Faces[face] = Fragment{Vertices: def.Model.FaceVertices(face.String())}
	}
	// Only a full cube can hide its neighbours' faces.
	b.Opaque = !def.Transparent && isFullBlock(def.Model)
	if !b.Opaque {
		b.Transparent = true
	}
	if def.Solid {
		for _, box := range def.Model.Boxes() {
			b.Collision = append(b.Collision, world.AABB{Min: box[0], Max: box[1]})
		}
	}
	return b
}

func isFullBlock(m *blockmodel.Model) bool {
	const epsilon = 0.001
	for _, box := range m.Boxes() {
		if box[0].ApproxEqualThreshold(mgl32.Vec3{}, epsilon) &&
			box[1].ApproxEqualThreshold(mgl32.Vec3{1, 1, 1}, epsilon) {
			return true
		}
	}
	return false
}

// Get returns the descriptor for id.
func (r *Registry) Get(id world.BlockID) (*Block, error) {
	if int(id) >= len(r.blocks) {
		return nil, fmt.Errorf("%w: id %d", ErrUnknownBlock, id)
	}
	return r.blocks[id], nil
}

// MustGet is Get for ids known to be registered. It panics otherwise.
func (r *Registry) MustGet(id world.BlockID) *Block {
	b, err := r.Get(id)
	if err != nil {
		panic(err)
	}
	return b
}

// IndexOf returns the id registered under name.
func (r *Registry) IndexOf(name string) (world.BlockID, error) {
	id, ok := r.byName[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownBlock, name)
	}
	return id, nil
}

// Water returns the id routed to the transparent mesh layer. Zero means the
// registry has no water.
func (r *Registry) Water() world.BlockID { return r.water }

// Len returns the number of registered ids.
func (r *Registry) Len() int { return len(r.blocks) }
