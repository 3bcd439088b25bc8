package pose

// Compare returns the offset of every critical body part of tpl that the user
// keypoints contain, in the template's declared critical order. Parts the
// estimator did not report are skipped.
func Compare(user map[BodyPart]Point, tpl PoseTemplate) []Deviation {
	deviations := make([]Deviation, 0, len(tpl.Critical))
	for _, part := range tpl.Critical {
		u, ok := user[part]
		if !ok {
			continue
		}
		ref, ok := tpl.Reference[part]
		if !ok {
			continue
		}
		deviations = append(deviations, Deviation{
			BodyPart: part,
			DX:       u.X - ref.X,
			DY:       u.Y - ref.Y,
		})
	}
	return deviations
}
