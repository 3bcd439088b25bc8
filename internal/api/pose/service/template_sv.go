package poseService

import (
	"PoseCoach/internal/api/pose"
	poseEngine "PoseCoach/pkg/pose"
)

func (s *poseService) Templates() pose.TemplateListResponse {
	registry := s.evaluator.Registry()
	names := registry.Names()

	res := pose.TemplateListResponse{
		Version:   registry.Version(),
		Templates: make([]pose.TemplateResponse, 0, len(names)),
	}

	for _, name := range names {
		tpl, err := registry.Lookup(name)
		if err != nil {
			continue
		}
		res.Templates = append(res.Templates, makeTemplateResponse(tpl))
	}

	return res
}

func makeTemplateResponse(tpl poseEngine.PoseTemplate) pose.TemplateResponse {
	critical := make([]string, 0, len(tpl.Critical))
	for _, part := range tpl.Critical {
		critical = append(critical, part.String())
	}

	reference := make(map[string]poseEngine.Point, len(tpl.Reference))
	for part, point := range tpl.Reference {
		reference[part.String()] = point
	}

	return pose.TemplateResponse{
		Name:          tpl.Name,
		CriticalParts: critical,
		Reference:     reference,
	}
}
