package repoclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/kuitang/content-e2e/internal/api"
	"github.com/kuitang/content-e2e/internal/urlutil"
)

// MyNode is the alias of the client person's home folder. Paths taken by
// NodesAPI are relative to it.
const MyNode = "-my-"

// NodesAPI manages folders below the client person's home folder.
type NodesAPI struct {
	c *Client
}

// CreateFolder creates one folder under relativePath, creating missing
// intermediate folders.
func (n *NodesAPI) CreateFolder(ctx context.Context, name, relativePath, description string) (*api.NodeBody, error) {
	body := api.NodeCreateBody{Name: name, NodeType: "cm:folder", RelativePath: relativePath}
	if description != "" {
		body.Properties = map[string]string{api.PropDescription: description}
	}
	var out api.Entry[api.NodeBody]
	if err := n.c.do(ctx, http.MethodPost, "/nodes/"+MyNode+"/children", nil, body, &out); err != nil {
		return nil, err
	}
	return &out.Entry, nil
}

// CreateFolders creates each named folder under relativePath, stopping at the first failure.
func (n *NodesAPI) CreateFolders(ctx context.Context, names []string, relativePath string) ([]api.NodeBody, error) {
	out := make([]api.NodeBody, 0, len(names))
	for _, name := range names {
		node, err := n.CreateFolder(ctx, name, relativePath, "")
		if err != nil {
			return out, fmt.Errorf("create folder %q: %w", name, err)
		}
		out = append(out, *node)
	}
	return out, nil
}

// GetNodeByPath resolves relativePath below the home folder.
func (n *NodesAPI) GetNodeByPath(ctx context.Context, relativePath string) (*api.NodeBody, error) {
	var out api.Entry[api.NodeBody]
	err := n.c.do(ctx, http.MethodGet, "/nodes/"+MyNode, url.Values{"relativePath": {relativePath}}, nil, &out)
	if err != nil {
		return nil, err
	}
	return &out.Entry, nil
}

// GetNodeDescription returns the description of folder name under parentPath.
func (n *NodesAPI) GetNodeDescription(ctx context.Context, name, parentPath string) (string, error) {
	node, err := n.GetNodeByPath(ctx, joinPath(parentPath, name))
	if err != nil {
		return "", err
	}
	return node.Properties[api.PropDescription], nil
}

// Children lists the folders directly under relativePath.
func (n *NodesAPI) Children(ctx context.Context, relativePath string) ([]api.NodeBody, error) {
	var out api.List[api.NodeBody]
	err := n.c.do(ctx, http.MethodGet, "/nodes/"+MyNode+"/children", url.Values{"relativePath": {relativePath}}, nil, &out)
	if err != nil {
		return nil, err
	}
	nodes := make([]api.NodeBody, 0, len(out.List.Entries))
	for _, e := range out.List.Entries {
		nodes = append(nodes, e.Entry)
	}
	return nodes, nil
}

// DeleteNodeByID deletes a node and everything below it.
func (n *NodesAPI) DeleteNodeByID(ctx context.Context, id string) error {
	return n.c.do(ctx, http.MethodDelete, "/nodes/"+urlutil.EscapeSegment(id), nil, nil, nil)
}

// DeleteNodes deletes each folder at the given paths below the home folder.
func (n *NodesAPI) DeleteNodes(ctx context.Context, relativePaths ...string) error {
	for _, p := range relativePaths {
		node, err := n.GetNodeByPath(ctx, p)
		if err != nil {
			return fmt.Errorf("resolve %q: %w", p, err)
		}
		if err := n.DeleteNodeByID(ctx, node.ID); err != nil {
			return fmt.Errorf("delete %q: %w", p, err)
		}
	}
	return nil
}

func joinPath(parent, name string) string {
	parent = strings.Trim(parent, "/")
	if parent == "" {
		return name
	}
	return parent + "/" + name
}
