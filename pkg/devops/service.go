package devops

import (
	"context"
	"fmt"

	"kqlmd/pkg/config"
	"kqlmd/pkg/errors"
	"kqlmd/pkg/git"
	"kqlmd/pkg/logger"

	"github.com/microsoft/azure-devops-go-api/azuredevops/v7"
	"github.com/microsoft/azure-devops-go-api/azuredevops/v7/workitemtracking"
)

// Service posts conversions to Azure DevOps work items.
type Service struct {
	organization string
	project      string
	workItems    workitemtracking.Client
}

// NewService builds a work item client from config. Missing organization or
// project fall back to the origin remote when run inside an Azure DevOps
// clone.
func NewService(ctx context.Context, cfg *config.Config) (*Service, error) {
	fillFromGitRemote(cfg)

	if err := cfg.ValidateAzure(); err != nil {
		return nil, err
	}

	organizationURL := fmt.Sprintf("https://dev.azure.com/%s", cfg.Azure.Organization)
	connection := azuredevops.NewPatConnection(organizationURL, cfg.Azure.PersonalAccessToken)

	workItems, err := workitemtracking.NewClient(ctx, connection)
	if err != nil {
		return nil, errors.NewWithError(errors.ExitCodeAPIRequest, errors.ErrMsgServiceCreation, err)
	}

	return &Service{
		organization: cfg.Azure.Organization,
		project:      cfg.Azure.Project,
		workItems:    workItems,
	}, nil
}

func (s *Service) Organization() string {
	return s.organization
}

func (s *Service) Project() string {
	return s.project
}

// fillFromGitRemote fills missing organization/project from the origin remote
func fillFromGitRemote(cfg *config.Config) {
	if cfg.Azure.Organization != "" && cfg.Azure.Project != "" {
		return
	}
	if !git.IsGitRepository() {
		return
	}

	remoteURL, err := git.GetRemoteURL("")
	if err != nil {
		logger.Debug().Err(err).Msg("No origin remote, skipping git inference")
		return
	}

	info, err := git.ParseAzureDevOpsURL(remoteURL)
	if err != nil {
		logger.Debug().Str("url", remoteURL).Msg("Origin remote is not an Azure DevOps URL")
		return
	}

	if cfg.Azure.Organization == "" {
		cfg.Azure.Organization = info.Organization
	}
	if cfg.Azure.Project == "" {
		cfg.Azure.Project = info.Project
	}

	logger.Debug().
		Str("organization", cfg.Azure.Organization).
		Str("project", cfg.Azure.Project).
		Msg("Resolved Azure DevOps target from git remote")
}
