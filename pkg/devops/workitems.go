package devops

import (
	"context"
	"fmt"
	"strings"

	"kqlmd/pkg/errors"
	"kqlmd/pkg/utils"

	"github.com/microsoft/azure-devops-go-api/azuredevops/v7/workitemtracking"
)

// WorkItemTitle fetches the System.Title field of a work item
func (s *Service) WorkItemTitle(ctx context.Context, id int) (string, error) {
	fields := []string{"System.Title"}
	wi, err := s.workItems.GetWorkItem(ctx, workitemtracking.GetWorkItemArgs{
		Project: &s.project,
		Id:      &id,
		Fields:  &fields,
	})
	if err != nil {
		return "", mapAPIError(id, err)
	}

	if wi == nil || wi.Fields == nil {
		return "", nil
	}
	return utils.ToString((*wi.Fields)["System.Title"]), nil
}

// AddComment posts an HTML comment body to a work item and returns the
// browser URL of the work item
func (s *Service) AddComment(ctx context.Context, workItemID int, text string) (string, error) {
	_, err := s.workItems.AddComment(ctx, workitemtracking.AddCommentArgs{
		Project:    &s.project,
		WorkItemId: &workItemID,
		Request:    &workitemtracking.CommentCreate{Text: &text},
	})
	if err != nil {
		return "", mapAPIError(workItemID, err)
	}

	return s.WorkItemURL(workItemID), nil
}

// WorkItemURL returns the browser URL for a work item
func (s *Service) WorkItemURL(id int) string {
	return fmt.Sprintf("https://dev.azure.com/%s/%s/_workitems/edit/%d", s.organization, s.project, id)
}

// mapAPIError sorts SDK failures into the error taxonomy. The SDK does not
// expose typed errors for these cases, so match on the TFS error codes
func mapAPIError(workItemID int, err error) *errors.Error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "does not exist"):
		return errors.WorkItemNotFoundError(workItemID)
	case strings.Contains(msg, "TF400813") || strings.Contains(msg, "VS30063"):
		return errors.AuthError()
	default:
		return errors.APIError(err)
	}
}
