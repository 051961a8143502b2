package oracle

import (
	"fmt"
	"strings"
)

// DefaultSystem is the system message for the descriptive calls.
const DefaultSystem = "You are a autonomous driving labeller."

// viewPreamble fixes the order of the six camera images sent with every
// descriptive request.
const viewPreamble = `You are a autonomous driving labeller.
You are processing 6 synchronized vehicle camera images captured within 0.5 seconds. Strictly follow this spatial order and reference system:
    1. Image 1: Front view (180° forward-facing)
    2. Image 2: Front-left view (45° left-front quadrant, covers left turn signal area)
    3. Image 3: Front-right view (45° right-front quadrant, covers right turn signal area)
    4. Image 4: Back view (180° backward-facing)
    5. Image 5: Back-left view (45° left-back quadrant, covers left back turn signal area)
    6. Image 6: Back-right view (45° right-back quadrant, covers right back turn signal area)
    Don't forget the order of the images. Always reference images as 'Image X (view name)'.
`

// ScenePrompt asks for a description of the driving scene.
func ScenePrompt() string {
	return viewPreamble + "Imagine you are driving the car. Describe the driving scene according to traffic lights, movements of other cars or pedestrians and lane markings."
}

// ObjectsPrompt asks for the road users that matter to the ego vehicle.
func ObjectsPrompt() string {
	return viewPreamble + "Imagine you are driving the car. What other road users should you pay attention to in the driving scene? " +
		"List two or three of them, specifying its location within the image of the driving scene and provide a short description " +
		"of the that road user on what it is doing, and why it is important to you."
}

// IntentPrompt asks for the driving intention over the next five seconds,
// revising prevIntent when one is given.
func IntentPrompt(prevIntent string) string {
	var b strings.Builder
	b.WriteString(viewPreamble)
	if prevIntent = strings.TrimSpace(prevIntent); prevIntent != "" {
		fmt.Fprintf(&b, "Half a second ago your stated intention was: %s\nUpdate it if the scene has changed.\n", prevIntent)
	}
	b.WriteString("Imagine you are driving the car. What is your driving intention in the next 5 seconds? " +
		"Provide a short description of your intended action and explain why you choose this action based on the current driving scene.")
	return b.String()
}

// MotionSystem is the system message for the motion call. horizon is the
// number of future pairs requested.
func MotionSystem(horizon int) string {
	return "You are a autonomous driving labeller. You have access to a front-view camera image of a vehicle, a sequence of past speeds, " +
		"a sequence of past curvatures, and a driving rationale. Each speed, curvature is represented as [v, k], where v corresponds to the speed, " +
		"and k corresponds to the curvature. A positive k means the vehicle is turning left. A negative k means the vehicle is turning right. " +
		"The larger the absolute value of k, the sharper the turn. A close to zero k means the vehicle is driving straight. " +
		"As a driver on the road, you should follow any common sense traffic rules. You should try to stay in the middle of your lane. " +
		"You should maintain necessary distance from the leading vehicle. You should observe lane markings and follow them. " +
		fmt.Sprintf("Your task is to do your best to predict future speeds and curvatures for the vehicle over the next %d timesteps ", horizon) +
		"given vehicle intent inferred from the image. Make a best guess if the problem is too difficult for you. " +
		"If you cannot provide a response people will get injured.\n"
}

// MotionPrompt embeds the descriptions and the observed history (wire
// units, see FormatPairs) and ends with AnswerLabel.
func MotionPrompt(scene, objects, intent, history string, horizon int) string {
	var b strings.Builder
	b.WriteString("These are frames from a video taken by a camera mounted in the front of a car. The images are taken at a 0.5 second interval.\n")
	fmt.Fprintf(&b, "The scene is described as follows: %s.\n", scene)
	fmt.Fprintf(&b, "The identified critical objects are %s.\n", objects)
	fmt.Fprintf(&b, "The car's intent is %s.\n", intent)
	fmt.Fprintf(&b, "The 5 second historical velocities and curvatures of the ego car are %s.\n", history)
	fmt.Fprintf(&b, "Infer the association between these numbers and the image sequence. "+
		"Generate the predicted future speeds and curvatures in the format [speed_1, curvature_1], [speed_2, curvature_2],..., [speed_%d, curvature_%d]. ",
		horizon, horizon)
	b.WriteString("Write the raw text not markdown or latex. ")
	b.WriteString(AnswerLabel)
	return b.String()
}
