package control

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tphakala/aliendaw/internal/errors"
	"github.com/tphakala/aliendaw/internal/observability/metrics"
	"github.com/tphakala/aliendaw/internal/synth"
)

// NodeRequest describes a node to create. Only the fields of Kind are read.
// Weight applies when the node is added to a mixer.
type NodeRequest struct {
	Kind     string        `json:"kind"`
	Level    float32       `json:"level,omitempty"`
	Freq     float32       `json:"freq,omitempty"`
	MaxVol   *float32      `json:"max_vol,omitempty"`
	MaxVolDB *float64      `json:"max_vol_db,omitempty"`
	Inner    *NodeRequest  `json:"inner,omitempty"`
	Children []NodeRequest `json:"children,omitempty"`
	Weight   *float32      `json:"weight,omitempty"`
	WeightDB *float64      `json:"weight_db,omitempty"`
}

// WeightRequest is the body of a weight change.
type WeightRequest struct {
	Weight   *float32 `json:"weight,omitempty"`
	WeightDB *float64 `json:"weight_db,omitempty"`
}

// MaxVolRequest is the body of a clip limit change.
type MaxVolRequest struct {
	MaxVol   *float32 `json:"max_vol,omitempty"`
	MaxVolDB *float64 `json:"max_vol_db,omitempty"`
}

// CreatedResponse carries the ID of a created node.
type CreatedResponse struct {
	ID string `json:"id"`
}

func (c *Controller) initGraphRoutes(g *echo.Group) {
	g.GET("", c.GetGraph)
	g.GET("/nodes/:id", c.GetNode)
	g.PUT("/nodes/:id", c.ReplaceNode)
	g.PUT("/nodes/:id/max-vol", c.SetMaxVol)
	g.POST("/nodes/:id/children", c.AddChild)
	g.DELETE("/nodes/:id/children/:child", c.RemoveChild)
	g.PUT("/nodes/:id/children/:child/weight", c.SetWeight)
}

// GetGraph handles GET /api/v1/graph.
func (c *Controller) GetGraph(ctx echo.Context) error {
	var view synth.NodeView
	c.graph.View(func(root *synth.Node) {
		view = root.Describe()
	})
	return ctx.JSON(http.StatusOK, view)
}

// GetNode handles GET /api/v1/graph/nodes/:id.
func (c *Controller) GetNode(ctx echo.Context) error {
	id := ctx.Param("id")
	var view synth.NodeView
	found := false
	c.graph.View(func(root *synth.Node) {
		if n := root.Find(id); n != nil {
			view, found = n.Describe(), true
		}
	})
	if !found {
		return c.HandleError(ctx, notFound(id), "node not found")
	}
	return ctx.JSON(http.StatusOK, view)
}

// AddChild handles POST /api/v1/graph/nodes/:id/children.
func (c *Controller) AddChild(ctx echo.Context) error {
	var req NodeRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, err, "invalid request body")
	}
	child, err := c.buildNode(&req)
	if err != nil {
		return c.HandleError(ctx, err, "invalid node")
	}
	weight, err := volumeFrom(req.Weight, req.WeightDB)
	if err != nil {
		return c.HandleError(ctx, err, "invalid weight")
	}

	var childID string
	err = c.edit(ctx.Param("id"), func(n *synth.Node) error {
		id, addErr := n.AddChild(child, weight)
		childID = id
		return addErr
	})
	if err != nil {
		return c.HandleError(ctx, err, "failed to add child")
	}
	return ctx.JSON(http.StatusCreated, CreatedResponse{ID: childID})
}

// RemoveChild handles DELETE /api/v1/graph/nodes/:id/children/:child.
func (c *Controller) RemoveChild(ctx echo.Context) error {
	child := ctx.Param("child")
	err := c.edit(ctx.Param("id"), func(n *synth.Node) error {
		return n.RemoveChild(child)
	})
	if err != nil {
		return c.HandleError(ctx, err, "failed to remove child")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// SetWeight handles PUT /api/v1/graph/nodes/:id/children/:child/weight.
func (c *Controller) SetWeight(ctx echo.Context) error {
	var req WeightRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, err, "invalid request body")
	}
	if req.Weight == nil && req.WeightDB == nil {
		return c.HandleError(ctx, missingField("weight"), "invalid weight")
	}
	weight, err := volumeFrom(req.Weight, req.WeightDB)
	if err != nil {
		return c.HandleError(ctx, err, "invalid weight")
	}

	child := ctx.Param("child")
	var view synth.NodeView
	err = c.edit(ctx.Param("id"), func(n *synth.Node) error {
		if err := n.SetWeight(child, weight); err != nil {
			return err
		}
		view = n.Describe()
		return nil
	})
	if err != nil {
		return c.HandleError(ctx, err, "failed to set weight")
	}
	return ctx.JSON(http.StatusOK, view)
}

// SetMaxVol handles PUT /api/v1/graph/nodes/:id/max-vol.
func (c *Controller) SetMaxVol(ctx echo.Context) error {
	var req MaxVolRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, err, "invalid request body")
	}
	if req.MaxVol == nil && req.MaxVolDB == nil {
		return c.HandleError(ctx, missingField("max_vol"), "invalid max_vol")
	}
	maxVol, err := volumeFrom(req.MaxVol, req.MaxVolDB)
	if err != nil {
		return c.HandleError(ctx, err, "invalid max_vol")
	}

	var view synth.NodeView
	err = c.edit(ctx.Param("id"), func(n *synth.Node) error {
		if err := n.SetMaxVol(maxVol); err != nil {
			return err
		}
		view = n.Describe()
		return nil
	})
	if err != nil {
		return c.HandleError(ctx, err, "failed to set max_vol")
	}
	return ctx.JSON(http.StatusOK, view)
}

// ReplaceNode handles PUT /api/v1/graph/nodes/:id.
func (c *Controller) ReplaceNode(ctx echo.Context) error {
	var req NodeRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, err, "invalid request body")
	}
	node, err := c.buildNode(&req)
	if err != nil {
		return c.HandleError(ctx, err, "invalid node")
	}

	id := ctx.Param("id")
	view := node.Describe()
	err = c.graph.Update(func(root *synth.Node) error {
		return root.Replace(id, node)
	})
	c.afterEdit(err)
	if err != nil {
		return c.HandleError(ctx, err, "failed to replace node")
	}
	return ctx.JSON(http.StatusOK, view)
}

// edit runs fn on the node with the given ID under the graph writer lock.
func (c *Controller) edit(id string, fn func(*synth.Node) error) error {
	err := c.graph.Update(func(root *synth.Node) error {
		n := root.Find(id)
		if n == nil {
			return notFound(id)
		}
		return fn(n)
	})
	c.afterEdit(err)
	return err
}

func (c *Controller) afterEdit(err error) {
	if c.metrics == nil {
		return
	}
	if err != nil {
		c.metrics.RecordOperation(metrics.OpGraphEdit, metrics.StatusError)
		return
	}
	c.metrics.RecordOperation(metrics.OpGraphEdit, metrics.StatusSuccess)
	c.graph.View(func(root *synth.Node) {
		c.metrics.SetGraphNodes(root.Count())
	})
}

// buildNode turns a request into a detached node.
func (c *Controller) buildNode(req *NodeRequest) (synth.Node, error) {
	kind, ok := synth.ParseKind(req.Kind)
	if !ok {
		return synth.Node{}, invalid("unknown node kind %q", req.Kind)
	}

	var n synth.Node
	switch kind {
	case synth.KindSilence:
		n = synth.NewSilence()
	case synth.KindConstant:
		n = synth.NewConstant(req.Level)
	case synth.KindSine:
		n = synth.NewSine(req.Freq, c.sampleRate)
	case synth.KindClip:
		inner := synth.NewSilence()
		if req.Inner != nil {
			var err error
			if inner, err = c.buildNode(req.Inner); err != nil {
				return synth.Node{}, err
			}
		}
		maxVol, err := volumeFrom(req.MaxVol, req.MaxVolDB)
		if err != nil {
			return synth.Node{}, err
		}
		n = synth.NewClip(inner, maxVol)
	case synth.KindMixer:
		channels := make([]synth.Channel, 0, len(req.Children))
		for i := range req.Children {
			child, err := c.buildNode(&req.Children[i])
			if err != nil {
				return synth.Node{}, err
			}
			weight, err := volumeFrom(req.Children[i].Weight, req.Children[i].WeightDB)
			if err != nil {
				return synth.Node{}, err
			}
			channels = append(channels, synth.NewChannel(child, weight))
		}
		n = synth.NewMixer(channels...)
	}
	if err := n.Validate(); err != nil {
		return synth.Node{}, err
	}
	return n, nil
}

// volumeFrom reads a linear or decibel gain, defaulting to unity.
func volumeFrom(linear *float32, db *float64) (synth.VolumeControl, error) {
	switch {
	case linear != nil:
		return synth.NewVolumeControl(*linear)
	case db != nil:
		return synth.VolumeFromDB(*db)
	default:
		return synth.DefaultVolume(), nil
	}
}

func notFound(id string) error {
	return errors.Newf("%w: %s", synth.ErrNodeNotFound, id).
		Component(componentControl).
		Category(errors.CategoryNotFound).
		Build()
}

func invalid(format string, args ...any) error {
	return errors.Newf(format, args...).
		Component(componentControl).
		Category(errors.CategoryValidation).
		Build()
}

func missingField(name string) error {
	return invalid("one of %s or %s_db is required", name, name)
}
