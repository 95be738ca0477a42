package channels

var loginHTML = loginPage("")

var loginErrorHTML = loginPage("Invalid username or password")

func loginPage(errMsg string) string {
	errBlock := ""
	if errMsg != "" {
		errBlock = `<div class="login-error">` + errMsg + `</div>`
	}
	return `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width,initial-scale=1">
<title>Lead Catalyst - Login</title>
<style>
:root{
  --bg-primary:#0f1117;--bg-secondary:#161822;--bg-input:#12141d;
  --border:#252836;--accent:#6c5ce7;--accent-hover:#5a4bd1;--accent-glow:rgba(108,92,231,.15);
  --text-primary:#e8e6f0;--text-secondary:#8b8a97;--text-muted:#5c5b66;
  --error:#f87171;--error-bg:rgba(248,113,113,.08);
}
*{box-sizing:border-box;margin:0;padding:0}
html,body{height:100%}
body{
  font-family:'Inter',system-ui,-apple-system,sans-serif;
  background:var(--bg-primary);color:var(--text-primary);
  display:flex;align-items:center;justify-content:center;
}
.login-card{width:100%;max-width:380px;padding:40px 32px;background:var(--bg-secondary);border:1px solid var(--border);border-radius:16px}
.login-card h1{font-size:20px;font-weight:600;text-align:center;margin-bottom:4px}
.login-card .sub{font-size:13px;color:var(--text-muted);text-align:center;margin-bottom:28px}
.login-error{padding:10px 14px;margin-bottom:20px;background:var(--error-bg);border:1px solid rgba(248,113,113,.2);border-radius:8px;font-size:13px;color:var(--error)}
.field{margin-bottom:16px}
.field label{display:block;font-size:13px;font-weight:500;color:var(--text-secondary);margin-bottom:6px}
.field input{width:100%;padding:11px 14px;background:var(--bg-input);border:1px solid var(--border);border-radius:8px;color:var(--text-primary);font-size:14px;outline:none}
.field input:focus{border-color:var(--accent);box-shadow:0 0 0 3px var(--accent-glow)}
.login-btn{width:100%;padding:12px;margin-top:8px;background:var(--accent);color:#fff;border:none;border-radius:10px;font-size:14px;font-weight:600;cursor:pointer}
.login-btn:hover{background:var(--accent-hover)}
</style>
</head>
<body>
<form class="login-card" method="POST" action="/login">
  <h1>Lead Catalyst</h1>
  <p class="sub">Sign in to search for leads</p>
  ` + errBlock + `
  <div class="field"><label for="username">Username</label><input id="username" name="username" type="text" autocomplete="username" required autofocus></div>
  <div class="field"><label for="password">Password</label><input id="password" name="password" type="password" autocomplete="current-password" required></div>
  <button class="login-btn" type="submit">Sign in</button>
</form>
</body>
</html>`
}

var webChatHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width,initial-scale=1">
<title>Lead Catalyst</title>
<style>
:root{
  --bg-primary:#0f1117;--bg-secondary:#161822;--bg-tertiary:#1c1f2e;
  --bg-input:#12141d;--border:#252836;
  --accent:#6c5ce7;--accent-hover:#5a4bd1;
  --text-primary:#e8e6f0;--text-secondary:#8b8a97;--text-muted:#5c5b66;
  --user-bg:linear-gradient(135deg,#6c5ce7 0%,#a855f7 100%);
  --error:#f87171;--error-bg:rgba(248,113,113,.08);
}
*{box-sizing:border-box;margin:0;padding:0}
html,body{height:100%}
body{font-family:'Inter',system-ui,-apple-system,sans-serif;background:var(--bg-primary);color:var(--text-primary);display:flex;flex-direction:column}
header{display:flex;align-items:center;justify-content:space-between;padding:14px 24px;border-bottom:1px solid var(--border);background:var(--bg-secondary)}
header h1{font-size:16px;font-weight:600}
header a{font-size:13px;color:var(--text-secondary);text-decoration:none}
main{flex:1;display:grid;grid-template-columns:minmax(320px,2fr) 3fr;gap:16px;padding:16px;min-height:0}
.card{background:var(--bg-secondary);border:1px solid var(--border);border-radius:12px;display:flex;flex-direction:column;min-height:0}
.card h2{font-size:14px;font-weight:600;padding:14px 16px;border-bottom:1px solid var(--border);display:flex;justify-content:space-between;align-items:center}
#messages{flex:1;overflow-y:auto;padding:16px;display:flex;flex-direction:column;gap:10px}
.msg{max-width:85%;padding:10px 14px;border-radius:12px;font-size:14px;line-height:1.5;white-space:pre-wrap;word-break:break-word}
.msg.user{align-self:flex-end;background:var(--user-bg);color:#fff}
.msg.bot{align-self:flex-start;background:var(--bg-tertiary)}
.msg.error{background:var(--error-bg);border:1px solid rgba(248,113,113,.2)}
.msg.thinking{color:var(--text-muted);font-style:italic}
.msg .detail{display:block;margin-top:6px;font-size:12px;color:var(--text-secondary)}
.msg .time{display:block;margin-top:4px;font-size:11px;opacity:.6}
#input-area{display:flex;gap:8px;padding:12px;border-top:1px solid var(--border)}
#input{flex:1;padding:10px 12px;background:var(--bg-input);border:1px solid var(--border);border-radius:8px;color:var(--text-primary);font-size:14px;outline:none}
#input:disabled{opacity:.5}
button{padding:9px 16px;background:var(--accent);color:#fff;border:none;border-radius:8px;font-size:13px;font-weight:600;cursor:pointer}
button:hover{background:var(--accent-hover)}
button:disabled{opacity:.4;cursor:not-allowed}
#table-wrap{flex:1;overflow:auto;padding:8px 16px}
table{width:100%;border-collapse:collapse;font-size:13px}
th{text-align:left;padding:8px;color:var(--text-secondary);border-bottom:1px solid var(--border);position:sticky;top:0;background:var(--bg-secondary)}
td{padding:8px;border-bottom:1px solid var(--border);vertical-align:top}
td pre{font-size:12px;white-space:pre-wrap}
caption{caption-side:bottom;padding:10px;font-size:12px;color:var(--text-muted)}
.placeholder{padding:24px;text-align:center;color:var(--text-muted);font-size:13px}
#toast{position:fixed;right:24px;bottom:24px;max-width:360px;padding:12px 16px;border-radius:10px;background:var(--bg-tertiary);border:1px solid var(--border);font-size:13px;display:none}
#toast.destructive{background:#3b1518;border-color:rgba(248,113,113,.4)}
#toast strong{display:block;margin-bottom:4px}
@media(max-width:900px){main{grid-template-columns:1fr}}
</style>
</head>
<body>
<header><h1>Lead Catalyst</h1><a href="/logout">Sign out</a></header>
<main>
  <section class="card">
    <h2>Chat</h2>
    <div id="messages"></div>
    <div id="input-area">
      <input id="input" type="text" placeholder="Describe the leads you are looking for..." aria-label="Chat message input">
      <button id="send">Send</button>
    </div>
  </section>
  <section class="card">
    <h2>Results <button id="export" disabled>Export CSV</button></h2>
    <div id="table-wrap"><div class="placeholder">No data yet. Send a message to search.</div></div>
  </section>
</main>
<div id="toast"></div>
<script>
const msgsEl=document.getElementById("messages"),
      input=document.getElementById("input"),
      btn=document.getElementById("send"),
      exportBtn=document.getElementById("export"),
      tableWrap=document.getElementById("table-wrap"),
      toastEl=document.getElementById("toast");
let chatId=sessionStorage.getItem("leadchat_id");
if(!chatId){chatId=(crypto.randomUUID?crypto.randomUUID():String(Date.now()));sessionStorage.setItem("leadchat_id",chatId)}
let busy=false,pollTimer=null;
function esc(s){return String(s).replace(/&/g,"&amp;").replace(/</g,"&lt;").replace(/>/g,"&gt;")}
function clock(ts){return new Date(ts).toLocaleTimeString([],{hour:'2-digit',minute:'2-digit'})}
function renderMessages(list){
  msgsEl.innerHTML="";
  (list||[]).forEach(function(m){
    const el=document.createElement("div");
    el.className="msg "+m.sender+(m.error?" error":"")+(m.thinking?" thinking":"");
    let html=esc(m.text);
    if(m.detail)html+='<span class="detail">'+esc(m.detail)+'</span>';
    if(!m.thinking)html+='<span class="time">'+clock(m.timestamp)+'</span>';
    el.innerHTML=html;msgsEl.appendChild(el);
  });
  msgsEl.scrollTop=msgsEl.scrollHeight;
}
function renderTable(grid,count){
  if(!grid||!grid.cells||grid.cells.length===0){
    tableWrap.innerHTML='<div class="placeholder">No data yet. Send a message to search.</div>';
    exportBtn.disabled=true;return;
  }
  let html="<table><thead><tr>";
  grid.headers.forEach(function(h){html+="<th>"+esc(h)+"</th>"});
  html+="</tr></thead><tbody>";
  grid.cells.forEach(function(row){
    html+="<tr>";
    row.forEach(function(c){html+=c.indexOf("\n")>=0?"<td><pre>"+esc(c)+"</pre></td>":"<td>"+esc(c)+"</td>"});
    html+="</tr>";
  });
  html+="</tbody>";
  if(count>10)html+="<caption>Showing "+count+" rows of data.</caption>";
  html+="</table>";
  tableWrap.innerHTML=html;exportBtn.disabled=false;
}
function toast(n){
  toastEl.className=n.variant||"";
  toastEl.innerHTML="<strong>"+esc(n.title)+"</strong>"+esc(n.description);
  toastEl.style.display="block";
  setTimeout(function(){toastEl.style.display="none"},5000);
}
function setBusy(b){busy=b;btn.disabled=b;input.disabled=b;if(!b)input.focus()}
function apply(snap,notes){
  renderMessages(snap.messages);
  renderTable(snap.grid,(snap.rows||[]).length);
  (notes||[]).forEach(toast);
  setBusy(snap.loading);
  if(snap.loading&&!pollTimer)pollTimer=setInterval(poll,1500);
  if(!snap.loading&&pollTimer){clearInterval(pollTimer);pollTimer=null}
}
async function poll(){
  try{
    const r=await fetch("/chat/poll?chat_id="+encodeURIComponent(chatId));
    if(r.status===401){window.location.href="/login";return}
    const d=await r.json();apply(d,d.notifications);
  }catch(e){console.error(e)}
}
async function send(){
  const m=input.value.trim();if(!m||busy)return;
  input.value="";setBusy(true);
  renderTable(null,0);
  msgsEl.insertAdjacentHTML("beforeend",'<div class="msg user">'+esc(m)+'</div><div class="msg bot thinking">Thinking...</div>');
  msgsEl.scrollTop=msgsEl.scrollHeight;
  try{
    const r=await fetch("/chat/send",{method:"POST",headers:{"Content-Type":"application/json"},body:JSON.stringify({message:m,chat_id:chatId})});
    if(r.status===401){window.location.href="/login";return}
    const d=await r.json();
    if(!r.ok)throw new Error(d.error||r.statusText);
    apply(d.snapshot,d.notifications);
  }catch(e){
    toast({title:"Error",description:e.message,variant:"destructive"});
    poll();
  }
}
async function exportCsv(){
  try{
    const r=await fetch("/chat/export?chat_id="+encodeURIComponent(chatId));
    if(r.status===204){console.warn("No data to export.");return}
    if(!r.ok)throw new Error(r.statusText);
    const blob=await r.blob();
    const name=(r.headers.get("Content-Disposition")||"").match(/filename="([^"]+)"/);
    const url=URL.createObjectURL(blob);
    const a=document.createElement("a");
    a.href=url;a.download=name?name[1]:"dados_exportados.csv";a.style.visibility="hidden";
    document.body.appendChild(a);a.click();document.body.removeChild(a);
    URL.revokeObjectURL(url);
  }catch(e){
    console.error("Error exporting to CSV:",e);
    alert("Failed to export data to CSV. Check the console for details.");
  }
}
btn.onclick=send;
exportBtn.onclick=exportCsv;
input.onkeydown=function(e){if(e.key==="Enter"){e.preventDefault();send()}};
poll();
</script>
</body>
</html>`
