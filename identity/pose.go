package identity

import (
	"math"
	"sort"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"

	"github.com/LdDl/myrmidon-go/chrono"
)

// minHeadTailDistance is the smallest head to tail distance giving a usable orientation
const minHeadTailDistance = 1.0

// PoseEstimate is a manual estimation of head and tail positions in the
// frame of tag, on an image taken at Time.
type PoseEstimate struct {
	Tag  TagID
	Time chrono.Time
	Head r2.Point
	Tail r2.Point
}

// Pose returns the individual position and angle in the tag frame
func (e PoseEstimate) Pose() (r2.Point, float64, error) {
	dir := e.Head.Sub(e.Tail)
	if dir.Norm() < minHeadTailDistance {
		return r2.Point{}, 0, errors.Wrapf(ErrInvalidPoseEstimate,
			"head %v and tail %v of %s are too close", e.Head, e.Tail, FormatTagID(e.Tag))
	}
	return e.Head.Add(e.Tail).Mul(0.5), math.Atan2(dir.Y, dir.X), nil
}

// MeanPose averages positions arithmetically and angles on the circle.
// No estimate yields the origin with a zero angle.
func MeanPose(estimates []PoseEstimate) (r2.Point, float64, error) {
	if len(estimates) == 0 {
		return r2.Point{}, 0, nil
	}
	xs := make([]float64, len(estimates))
	ys := make([]float64, len(estimates))
	angles := make([]float64, len(estimates))
	for i, e := range estimates {
		p, a, err := e.Pose()
		if err != nil {
			return r2.Point{}, 0, err
		}
		xs[i], ys[i], angles[i] = p.X, p.Y, a
	}
	return r2.Point{X: stat.Mean(xs, nil), Y: stat.Mean(ys, nil)}, stat.CircularMean(angles, nil), nil
}

// SetPoseEstimate stores an estimate, replacing any previous one for the
// same tag and time, and updates the identification covering it.
func (m *Manager) SetPoseEstimate(e PoseEstimate) error {
	if _, _, err := e.Pose(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setPoseEstimate(e)
	return nil
}

func (m *Manager) setPoseEstimate(e PoseEstimate) {
	list := m.poseEstimates[e.Tag]
	replaced := false
	for i := range list {
		if list[i].Time.Equal(e.Time) {
			list[i] = e
			replaced = true
			break
		}
	}
	if !replaced {
		m.poseEstimates[e.Tag] = append(list, e)
	}
	if ident := identify(m.byTag[e.Tag], e.Time); ident != nil {
		m.updatePose(ident)
	}
}

// DeletePoseEstimate removes the estimate of tag at t
func (m *Manager) DeletePoseEstimate(tag TagID, t chrono.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deletePoseEstimate(tag, t)
}

func (m *Manager) deletePoseEstimate(tag TagID, t chrono.Time) error {
	if !m.removePoseEstimate(tag, t) {
		return errors.Errorf("No pose estimate for %s at %s", FormatTagID(tag), t)
	}
	return nil
}

// removePoseEstimate reports whether an estimate of tag at t was removed
func (m *Manager) removePoseEstimate(tag TagID, t chrono.Time) bool {
	list := m.poseEstimates[tag]
	for i := range list {
		if !list[i].Time.Equal(t) {
			continue
		}
		m.poseEstimates[tag] = append(list[:i:i], list[i+1:]...)
		if len(m.poseEstimates[tag]) == 0 {
			delete(m.poseEstimates, tag)
		}
		if ident := identify(m.byTag[tag], t); ident != nil {
			m.updatePose(ident)
		}
		return true
	}
	return false
}

// PoseEstimates returns the estimates of a tag
func (m *Manager) PoseEstimates(tag TagID) []PoseEstimate {
	m.mu.RLock()
	defer m.mu.RUnlock()
	list := m.poseEstimates[tag]
	res := make([]PoseEstimate, len(list))
	copy(res, list)
	return res
}

// AllPoseEstimates returns every stored estimate, by tag then time
func (m *Manager) AllPoseEstimates() []PoseEstimate {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var res []PoseEstimate
	for _, list := range m.poseEstimates {
		res = append(res, list...)
	}
	sort.Slice(res, func(i, j int) bool {
		if res[i].Tag != res[j].Tag {
			return res[i].Tag < res[j].Tag
		}
		return res[i].Time.Before(res[j].Time)
	})
	return res
}

// updatePose recomputes the individual pose of ident from the estimates
// of its tag within its range. Without estimates the pose is the origin.
func (m *Manager) updatePose(ident *Identification) {
	if ident.UserDefinedPose {
		return
	}
	var estimates []PoseEstimate
	for _, e := range m.poseEstimates[ident.Tag] {
		if chrono.IsValid(ident, e.Time) {
			estimates = append(estimates, e)
		}
	}
	sort.Slice(estimates, func(i, j int) bool { return estimates[i].Time.Before(estimates[j].Time) })
	position, angle, err := MeanPose(estimates)
	if err != nil {
		// estimates are validated when stored
		m.logger.Error().Err(err).Uint64("identification", uint64(ident.ID)).Msg("Can't compute pose")
		return
	}
	ident.IndividualPosition = position
	ident.IndividualAngle = angle
}
