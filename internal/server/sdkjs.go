package server

import (
	"fmt"
	"net/http"
)

// handleSDKScript serves the drop-in client SDK
func (s *Server) handleSDKScript(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Determine server URL from request
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	serverURL := fmt.Sprintf("%s://%s", scheme, r.Host)

	script := GenerateSDKScript(serverURL)

	w.Header().Set("Content-Type", "application/javascript")
	w.Header().Set("Cache-Control", "public, max-age=60")
	w.Write([]byte(script))
}

// GenerateSDKScript generates the sdk.js client with the given server URL.
// Assignment happens server-side (the visitor id is the only client
// state); the script persists the id, applies assigned variation text to
// tagged elements, and wires conversion beacons.
func GenerateSDKScript(serverURL string) string {
	return fmt.Sprintf(`(function(){
  var S='%s';

  // Visitor id persists so the server keeps bucketing us the same way.
  var vid=localStorage.getItem('sk_vid')||'';

  function post(path,body){
    return fetch(S+path,{
      method:'POST',
      headers:{'Content-Type':'application/json'},
      body:JSON.stringify(body)
    });
  }

  function assign(experiment,fallback){
    return post('/assign',{experiment:experiment,visitor_id:vid,fallback:fallback})
      .then(function(r){return r.json();})
      .then(function(data){
        if(data.visitor_id&&!vid){
          vid=data.visitor_id;
          localStorage.setItem('sk_vid',vid);
        }
        return data.variation;
      });
  }

  function convert(experiment,event,value){
    if(!vid)return Promise.resolve();
    var body={experiment:experiment,visitor_id:vid,event:event||'conversion'};
    if(value!==undefined)body.value=value;
    return post('/e',body);
  }

  // Auto-wire tagged elements:
  //   <h1 data-sk-experiment="hero" data-sk-variations='{"a":"Ship Faster","b":"Build Better"}'>Ship Faster</h1>
  //   <button data-sk-convert="hero">Sign Up</button>
  document.querySelectorAll('[data-sk-experiment]').forEach(function(el){
    var experiment=el.dataset.skExperiment;
    var content={};
    try{content=JSON.parse(el.dataset.skVariations||'{}');}catch(e){}
    assign(experiment,'').then(function(variation){
      if(variation&&content[variation]!==undefined){
        el.textContent=content[variation];
      }
    });
  });

  document.querySelectorAll('[data-sk-convert]').forEach(function(el){
    el.addEventListener('click',function(){
      convert(el.dataset.skConvert,el.dataset.skEvent);
    });
  });

  window.splitkit={assign:assign,convert:convert};
})();
`, serverURL)
}
